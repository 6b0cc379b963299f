package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/tasklite/internal/collection"
	"github.com/sandeepkv93/tasklite/internal/model"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		due      string
		priority string
		tags     []string
		estimate int
	)
	cmd := &cobra.Command{
		Use:   "add <title>...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.withCollection(func(col *collection.Collection) error {
				task, err := col.Add(strings.Join(args, " "))
				if err != nil {
					return err
				}
				var u model.TaskUpdate
				if due != "" {
					at, err := parseWhen(due)
					if err != nil {
						return err
					}
					u.DueAt = &at
				}
				if priority != "" {
					p := model.Priority(priority)
					u.Priority = &p
				}
				if estimate > 0 {
					u.EstimateMinutes = &estimate
				}
				if err := col.Update(task.ID, u); err != nil {
					return err
				}
				for _, tag := range tags {
					if err := col.AddTaskTag(task.ID, tag); err != nil {
						return err
					}
				}
				fmt.Printf("added %s  %s\n", shortID(task.ID), task.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "due date (2006-01-02 or RFC3339)")
	cmd.Flags().StringVar(&priority, "priority", "", "priority: high, medium, low, none")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tags to attach")
	cmd.Flags().IntVar(&estimate, "estimate", 0, "estimated minutes")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		sortKey string
		desc    bool
		group   string
		tag     string
		text    string
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.withCollection(func(col *collection.Collection) error {
				if sortKey != "" {
					col.SetSort(sortKey, !desc)
				}
				col.SetGroupMode(group)
				col.SetFilter(tag, text)

				groups := col.Grouped()
				for _, g := range groups {
					if len(groups) > 1 || g.Key != "all" {
						fmt.Printf("%s\n", strings.ToUpper(g.Key))
					}
					for _, t := range g.Tasks {
						if t.Completed && !all {
							continue
						}
						printTask(t)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sortKey, "sort", "", "sort key: manual, priority, due, title")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().StringVar(&group, "group", "", "group mode: priority or due")
	cmd.Flags().StringVar(&tag, "tag", "", "filter by tag")
	cmd.Flags().StringVar(&text, "filter", "", "filter by title substring")
	cmd.Flags().BoolVar(&all, "all", false, "include completed tasks")
	return cmd
}

func newDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.withCollection(func(col *collection.Collection) error {
				id, err := resolveID(col, args[0])
				if err != nil {
					return err
				}
				if err := col.ToggleComplete(id); err != nil {
					return err
				}
				if t, ok := col.Get(id); ok {
					printTask(t)
				}
				return nil
			})
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	var clearCompleted bool
	cmd := &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a task (undoable)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.withCollection(func(col *collection.Collection) error {
				if clearCompleted {
					n, err := col.ClearCompleted()
					if err != nil {
						return err
					}
					fmt.Printf("cleared %d completed\n", n)
					return nil
				}
				if len(args) == 0 {
					return fmt.Errorf("task id required")
				}
				id, err := resolveID(col, args[0])
				if err != nil {
					return err
				}
				return col.Remove(id)
			})
		},
	}
	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "clear all completed tasks instead")
	return cmd
}

func newUndoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the last destructive action",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.withCollection(func(col *collection.Collection) error {
				undone, err := col.Undo()
				if err != nil {
					return err
				}
				if !undone {
					fmt.Println("nothing to undo")
					return nil
				}
				fmt.Println("undone")
				return nil
			})
		},
	}
}

func newTimerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Work timers (one runs at a time)",
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.withCollection(func(col *collection.Collection) error {
				id, ok := col.RunningID()
				if !ok {
					fmt.Println("no timer running")
					return nil
				}
				t, _ := col.Get(id)
				elapsed, _ := col.Elapsed(id)
				fmt.Printf("running %s  %s  %s\n", shortID(id), t.Title, formatMS(elapsed))
				return nil
			})
		},
	}
	action := func(name string, fn func(*collection.Collection, string) error) *cobra.Command {
		return &cobra.Command{
			Use:   name + " <id>",
			Short: name + " a task timer",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return a.withCollection(func(col *collection.Collection) error {
					id, err := resolveID(col, args[0])
					if err != nil {
						return err
					}
					if err := fn(col, id); err != nil {
						return err
					}
					elapsed, _ := col.Elapsed(id)
					fmt.Printf("%s %s  %s\n", name, shortID(id), formatMS(elapsed))
					return nil
				})
			},
		}
	}
	cmd.AddCommand(
		action("start", func(c *collection.Collection, id string) error { return c.StartTimer(id) }),
		action("pause", func(c *collection.Collection, id string) error { return c.PauseTimer(id) }),
		action("toggle", func(c *collection.Collection, id string) error { return c.ToggleTimer(id) }),
		action("reset", func(c *collection.Collection, id string) error { return c.ResetTimer(id) }),
	)
	return cmd
}

func newTagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage the tag vocabulary",
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.withCollection(func(col *collection.Collection) error {
				for _, tag := range col.Tags() {
					fmt.Println(tag)
				}
				return nil
			})
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add a tag to the vocabulary",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return a.withCollection(func(col *collection.Collection) error {
					col.AddTag(args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rm <name>",
			Short: "Delete a tag everywhere (undoable)",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return a.withCollection(func(col *collection.Collection) error {
					col.DeleteTag(args[0])
					return nil
				})
			},
		},
	)
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Task statistics",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.withCollection(func(col *collection.Collection) error {
				s := col.Stats()
				fmt.Printf("total      %d\n", s.Total)
				fmt.Printf("active     %d\n", s.Active)
				fmt.Printf("completed  %d (%.0f%%)\n", s.Completed, s.CompletionRate*100)
				fmt.Printf("tracked    %s\n", formatMS(s.AccumulatedMS))
				fmt.Printf("estimated  %dm\n", s.EstimateMinutes)
				for tag, n := range s.TagCounts {
					fmt.Printf("  #%s %d\n", tag, n)
				}
				return nil
			})
		},
	}
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync with the remote store",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// The remote store is an interface; wiring a concrete backend
			// is deployment-specific.
			return errNoRemote
		},
	}
}

func printTask(t model.Task) {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	line := fmt.Sprintf("%s %s  %s", box, shortID(t.ID), t.Title)
	if t.Priority != model.PriorityNone {
		line += "  !" + string(t.Priority)
	}
	if t.DueAt != nil {
		line += "  due " + t.DueAt.Format("2006-01-02")
	}
	for _, tag := range t.Tags {
		line += "  #" + tag
	}
	if t.Running() {
		line += "  (running)"
	}
	fmt.Println(line)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatMS(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return d.Round(time.Second).String()
}

func parseWhen(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if at, err := time.Parse(layout, raw); err == nil {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", raw)
}
