package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/tasklite/internal/collection"
	"github.com/sandeepkv93/tasklite/internal/config"
	"github.com/sandeepkv93/tasklite/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tasklite: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg        config.Config
	configPath string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "tasklite",
		Short:         "Local-first task manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()
			path := a.configPath
			if path == "" {
				if home, err := os.UserHomeDir(); err == nil {
					path = filepath.Join(home, ".tasklite", "config.yaml")
				}
			}
			var err error
			if cfg, err = config.LoadFile(cfg, path); err != nil {
				return err
			}
			a.cfg = config.FromEnv(cfg)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file")

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newDoneCmd(a),
		newRemoveCmd(a),
		newUndoCmd(a),
		newTimerCmd(a),
		newTagCmd(a),
		newStatsCmd(a),
		newSyncCmd(a),
	)
	return root
}

// withCollection builds the ownership tree for one command invocation:
// config, then storage, then the collection, torn down in reverse.
func (a *app) withCollection(fn func(*collection.Collection) error) error {
	if dir := filepath.Dir(a.cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	store, err := storage.OpenSQLite(a.cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	col, err := collection.New(context.Background(), store, collection.Options{
		SaveDelay:    a.cfg.SaveDelay,
		SyncDelay:    a.cfg.SyncDelay,
		TickInterval: a.cfg.TickInterval,
		UndoCapacity: a.cfg.UndoCapacity,
		UndoTTL:      a.cfg.UndoTTL,
	})
	if err != nil {
		return err
	}
	col.SetNotifier(func(n collection.Notification) {
		fmt.Println(n.Message)
	})

	runErr := fn(col)
	if err := col.Close(); runErr == nil {
		runErr = err
	}
	return runErr
}

// resolveID matches a task by full id or unique prefix.
func resolveID(col *collection.Collection, arg string) (string, error) {
	var matches []string
	for _, t := range col.All() {
		if t.ID == arg {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no task matches %q", arg)
	default:
		return "", fmt.Errorf("%q is ambiguous (%d matches)", arg, len(matches))
	}
}

var errNoRemote = errors.New("no remote backend configured")
