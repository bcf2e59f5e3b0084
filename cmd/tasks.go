package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/nibzard/taskboard/internal/config"
	"github.com/nibzard/taskboard/internal/filter"
	"github.com/nibzard/taskboard/internal/locale"
	"github.com/nibzard/taskboard/internal/task"
)

const dueLayout = "2006-01-02"

// withBoard opens the board, runs fn and writes pending changes.
func withBoard(ctx context.Context, cfg *config.Config, fn func(*board) error) (err error) {
	b, err := openBoard(ctx, cfg, cliLogger(cfg), 0)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	b.warnLoadError()
	return fn(b)
}

// lsCommand lists tasks grouped by status.
func lsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	// Parse ls-specific flags
	fs := flag.NewFlagSet("taskboard ls", flag.ContinueOnError)
	fs.SetOutput(stderr)
	statusFilter := fs.String("status", "", "Filter by status (todo|in-progress|done)")
	priorityFilter := fs.String("priority", "", "Filter by priority (low|medium|high)")
	search := fs.String("search", "", "Filter by title")
	sortKey := fs.String("sort", string(filter.SortNewest), "Sort order (newest|oldest|priority-high|priority-low)")
	asJSON := fs.Bool("json", false, "Print JSON")
	verbose := fs.Bool("v", false, "Show more details")

	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	if len(remaining) == 1 && *statusFilter == "" {
		*statusFilter = remaining[0]
	}

	criteria := filter.DefaultCriteria()
	criteria.Search = *search
	if *statusFilter != "" {
		s, err := task.ParseStatus(*statusFilter)
		if err != nil {
			return err
		}
		criteria.Status = string(s)
	}
	if *priorityFilter != "" {
		p, err := task.ParsePriority(*priorityFilter)
		if err != nil {
			return err
		}
		criteria.Priority = string(p)
	}
	key, err := filter.ParseSort(*sortKey)
	if err != nil {
		return err
	}
	criteria.Sort = key

	return withBoard(ctx, cfg, func(b *board) error {
		tasks := filter.Apply(b.store.Tasks(), criteria)
		if *asJSON {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(tasks)
		}
		if len(tasks) == 0 {
			fmt.Fprintln(stdout, "No tasks found.")
			return nil
		}
		for _, s := range task.Statuses() {
			printTasksByStatus(b.tr, tasks, s, *verbose)
		}
		return nil
	})
}

// addCommand creates a task from the remaining arguments.
func addCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("taskboard add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	desc := fs.String("desc", "", "Description")
	priority := fs.String("priority", string(task.PriorityMedium), "Priority (low|medium|high)")
	status := fs.String("status", string(task.StatusTodo), "Status (todo|in-progress|done)")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	tags := fs.String("tags", "", "Comma-separated tags")

	if err := fs.Parse(args); err != nil {
		return err
	}
	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		return errors.New("title is required")
	}

	d := task.Draft{Title: title, Description: *desc, Tags: splitAndTrim(*tags, ",")}
	var err error
	if d.Status, err = task.ParseStatus(*status); err != nil {
		return err
	}
	if d.Priority, err = task.ParsePriority(*priority); err != nil {
		return err
	}
	if d.DueDate, err = parseDue(*due); err != nil {
		return err
	}

	return withBoard(ctx, cfg, func(b *board) error {
		created, err := b.store.Create(d)
		if err != nil {
			return fmt.Errorf("creating task: %w", err)
		}
		fmt.Fprintf(stdout, "Created %s\n", created.ID)
		return nil
	})
}

// editCommand applies the flags that were set to one task.
func editCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("taskboard edit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	title := fs.String("title", "", "Title")
	desc := fs.String("desc", "", "Description")
	priority := fs.String("priority", "", "Priority (low|medium|high)")
	status := fs.String("status", "", "Status (todo|in-progress|done)")
	due := fs.String("due", "", "Due date (YYYY-MM-DD, empty clears)")
	tags := fs.String("tags", "", "Comma-separated tags")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: taskboard edit [options] <id>")
	}
	ref := fs.Arg(0)

	var patch task.Patch
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			patch.Title = title
		case "desc":
			patch.Description = desc
		case "priority":
			p, err := task.ParsePriority(*priority)
			parseErr = errors.Join(parseErr, err)
			patch.Priority = &p
		case "status":
			s, err := task.ParseStatus(*status)
			parseErr = errors.Join(parseErr, err)
			patch.Status = &s
		case "due":
			d, err := parseDue(*due)
			parseErr = errors.Join(parseErr, err)
			patch.DueDate = d
			patch.ClearDueDate = d == nil
		case "tags":
			t := splitAndTrim(*tags, ",")
			patch.Tags = &t
		}
	})
	if parseErr != nil {
		return parseErr
	}
	if patch.IsZero() {
		return errors.New("nothing to change")
	}

	return withBoard(ctx, cfg, func(b *board) error {
		id, err := resolveID(b.store.Tasks(), ref)
		if err != nil {
			return err
		}
		if err := b.store.Update(id, patch); err != nil {
			return fmt.Errorf("updating task: %w", err)
		}
		fmt.Fprintf(stdout, "Updated %s\n", id)
		return nil
	})
}

// moveCommand changes the status of one task.
func moveCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: taskboard move <id> <status>")
	}
	status, err := task.ParseStatus(args[1])
	if err != nil {
		return err
	}
	return withBoard(ctx, cfg, func(b *board) error {
		id, err := resolveID(b.store.Tasks(), args[0])
		if err != nil {
			return err
		}
		if err := b.store.ChangeStatus(id, status); err != nil {
			return fmt.Errorf("moving task: %w", err)
		}
		fmt.Fprintf(stdout, "Moved %s to %s\n", id, b.tr.Status(status))
		return nil
	})
}

// rmCommand deletes tasks by id.
func rmCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: taskboard rm <id> [id...]")
	}
	return withBoard(ctx, cfg, func(b *board) error {
		for _, ref := range args {
			id, err := resolveID(b.store.Tasks(), ref)
			if err != nil {
				return err
			}
			if err := b.store.Remove(id); err != nil {
				return fmt.Errorf("removing task: %w", err)
			}
			fmt.Fprintf(stdout, "Removed %s\n", id)
		}
		return nil
	})
}

// resetCommand clears storage and restores the sample tasks.
func resetCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("taskboard reset", flag.ContinueOnError)
	fs.SetOutput(stderr)
	yes := fs.Bool("y", false, "Confirm the reset")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("reset replaces every task; rerun with -y to confirm")
	}
	return withBoard(ctx, cfg, func(b *board) error {
		if err := b.store.Reset(); err != nil {
			return fmt.Errorf("resetting board: %w", err)
		}
		fmt.Fprintf(stdout, "Board reset to %d sample tasks\n", len(b.store.Tasks()))
		return nil
	})
}

// resolveID accepts a full id or a unique id prefix.
func resolveID(tasks []task.Task, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("task id is required")
	}
	var matches []string
	for _, t := range tasks {
		if t.ID == ref {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no task with id %q", ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q matches %d tasks", ref, len(matches))
	}
}

func parseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(dueLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q (want YYYY-MM-DD)", s)
	}
	return &d, nil
}

// printTasksByStatus prints tasks of a specific status.
func printTasksByStatus(tr *locale.Translator, tasks []task.Task, status task.Status, verbose bool) {
	var matching []task.Task
	for _, t := range tasks {
		if t.Status == status {
			matching = append(matching, t)
		}
	}
	if len(matching) == 0 {
		return
	}
	fmt.Fprintf(stdout, "%s (%d):\n", tr.Status(status), len(matching))
	for _, t := range matching {
		printTask(tr, t, verbose)
	}
	fmt.Fprintln(stdout)
}

// printTask prints a single task.
func printTask(tr *locale.Translator, t task.Task, verbose bool) {
	line := fmt.Sprintf("  [%s] (%s) %s", t.ID, tr.Priority(t.Priority), t.Title)
	if t.DueDate != nil {
		line += "  due " + t.DueDate.Format(dueLayout)
	}
	fmt.Fprintln(stdout, line)

	if verbose {
		if t.Description != "" {
			fmt.Fprintf(stdout, "      %s: %s\n", tr.T("field_description"), t.Description)
		}
		if len(t.Tags) > 0 {
			fmt.Fprintf(stdout, "      Tags: %s\n", strings.Join(t.Tags, ", "))
		}
		fmt.Fprintf(stdout, "      %s: %s\n", tr.T("field_created"), t.CreatedAt.Format(time.RFC3339))
	}
}

// splitAndTrim splits a string by sep and trims whitespace from each part.
func splitAndTrim(s, sep string) []string {
	var result []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
