package remote

import (
	"context"

	"github.com/sandeepkv93/tasklite/internal/model"
)

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// ChangeEvent is one live change delivered by a subscription: the operation
// plus old/new row snapshots (Old for deletes, New for inserts and updates).
type ChangeEvent struct {
	Op  Op
	Old *model.RemoteTask
	New *model.RemoteTask
}

// Subscription is a live change feed for one owner. Events is closed when
// the subscription ends.
type Subscription interface {
	Events() <-chan ChangeEvent
	Close() error
}

// Store is the narrow contract to the remote task store: rows keyed by id,
// queryable by owner, with create/update/delete-by-id and a live
// subscription per owner. The concrete wire client lives outside this
// repository.
type Store interface {
	List(ctx context.Context, ownerID string) ([]model.RemoteTask, error)
	Create(ctx context.Context, rec model.RemoteTask) error
	Update(ctx context.Context, rec model.RemoteTask) error
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, ownerID string) (Subscription, error)
}

// Local is the coordinator's only access to the entity set: accessor
// callbacks implemented by the collection. The coordinator never keeps its
// own copy of the entities.
type Local interface {
	// StampOwner sets the owner on every entity (used on attach).
	StampOwner(ownerID string)
	// SyncView returns copies of all entities, tombstones included.
	SyncView() []model.Task
	// Lookup returns a copy of one entity.
	Lookup(id string) (model.Task, bool)
	// ApplyRemote replaces a clean local entity wholesale.
	ApplyRemote(rec model.RemoteTask)
	// InsertRemote appends a fresh, clean entity received from the remote.
	InsertRemote(rec model.RemoteTask)
	// AcknowledgeCreate clears new/dirty/error after our own creation is
	// echoed back.
	AcknowledgeCreate(id string)
	// MarkSynced clears the bookkeeping flags after a successful push.
	MarkSynced(id string)
	// MarkSyncError records a per-entity push failure.
	MarkSyncError(id string, msg string)
	// Purge removes an entity from the backing store outright.
	Purge(id string)
}
