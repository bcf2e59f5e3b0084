package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nibzard/taskboard/internal/task"
)

// isolate gives each test its own HOME, working directory and data dir and
// captures the output streams.
func isolate(t *testing.T) (out *bytes.Buffer, dataDir string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, k := range []string{"TASKBOARD_STORAGE", "TASKBOARD_DATA_DIR", "TASKBOARD_LOCALE", "TASKBOARD_LOG_LEVEL", "TASKBOARD_SQLITE_PATH"} {
		t.Setenv(k, "")
	}
	chdir(t, t.TempDir())

	out = &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	oldOut, oldErr := stdout, stderr
	stdout, stderr = out, errOut
	t.Cleanup(func() { stdout, stderr = oldOut, oldErr })
	return out, filepath.Join(home, "data")
}

// run invokes the CLI against the test data dir and returns stdout.
func run(t *testing.T, out *bytes.Buffer, dataDir string, args ...string) (string, error) {
	t.Helper()
	out.Reset()
	full := append([]string{"-data-dir", dataDir}, args...)
	err := Run(context.Background(), full)
	return out.String(), err
}

func mustRun(t *testing.T, out *bytes.Buffer, dataDir string, args ...string) string {
	t.Helper()
	s, err := run(t, out, dataDir, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return s
}

func listJSON(t *testing.T, out *bytes.Buffer, dataDir string, args ...string) []task.Task {
	t.Helper()
	raw := mustRun(t, out, dataDir, append([]string{"ls", "-json"}, args...)...)
	var tasks []task.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		t.Fatalf("decoding ls -json output %q: %v", raw, err)
	}
	return tasks
}

func TestRun(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"help flag", []string{"--help"}, "Usage:"},
		{"short help flag", []string{"-h"}, "Usage:"},
		{"help command", []string{"help"}, "Commands:"},
		{"version flag", []string{"--version"}, "taskboard version dev"},
		{"version command", []string{"version"}, "taskboard version dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := isolate(t)
			if err := Run(context.Background(), tt.args); err != nil {
				t.Fatalf("Run(%v): %v", tt.args, err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output %q does not contain %q", out.String(), tt.want)
			}
		})
	}

	t.Run("unknown command returns error", func(t *testing.T) {
		isolate(t)
		err := Run(context.Background(), []string{"unknown-command"})
		if err == nil || !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("expected unknown command error, got %v", err)
		}
	})

	t.Run("bad config is reported", func(t *testing.T) {
		isolate(t)
		err := Run(context.Background(), []string{"-storage", "etcd", "ls"})
		if err == nil || !strings.Contains(err.Error(), "loading config") {
			t.Errorf("expected config error, got %v", err)
		}
	})

	t.Run("tui needs a terminal", func(t *testing.T) {
		_, dir := isolate(t)
		err := Run(context.Background(), []string{"-data-dir", dir, "-min-loading-ms", "0"})
		if err == nil || !strings.Contains(err.Error(), "TTY") {
			t.Errorf("expected TTY error, got %v", err)
		}
	})
}

func TestLsSeedsDefaults(t *testing.T) {
	out, dir := isolate(t)

	text := mustRun(t, out, dir, "ls")
	for _, want := range []string{"To do (2):", "In progress (1):", "Done (1):", "Welcome to the board"} {
		if !strings.Contains(text, want) {
			t.Errorf("ls output missing %q:\n%s", want, text)
		}
	}

	tasks := listJSON(t, out, dir, "-status", "todo", "-sort", "oldest")
	if len(tasks) != 2 || tasks[0].ID != "default-welcome" {
		t.Errorf("filtered ls: got %v", tasks)
	}
}

func TestTaskLifecycle(t *testing.T) {
	out, dir := isolate(t)

	created := mustRun(t, out, dir, "add", "-priority", "high", "-tags", "home, errands", "-due", "2026-04-01", "Buy", "milk")
	if !strings.HasPrefix(created, "Created ") {
		t.Fatalf("add output: %q", created)
	}
	id := strings.TrimSpace(strings.TrimPrefix(created, "Created "))

	tasks := listJSON(t, out, dir, "-search", "MILK")
	if len(tasks) != 1 || tasks[0].ID != id {
		t.Fatalf("search: got %v", tasks)
	}
	got := tasks[0]
	if got.Title != "Buy milk" || got.Priority != task.PriorityHigh || len(got.Tags) != 2 || got.DueDate == nil {
		t.Errorf("created task: %+v", got)
	}

	mustRun(t, out, dir, "edit", "-title", "Buy oat milk", "-due", "", id[:8])
	mustRun(t, out, dir, "move", id, "in-progress")

	tasks = listJSON(t, out, dir, "-status", "in-progress")
	var edited *task.Task
	for i := range tasks {
		if tasks[i].ID == id {
			edited = &tasks[i]
		}
	}
	if edited == nil {
		t.Fatalf("moved task not in lane: %v", tasks)
	}
	if edited.Title != "Buy oat milk" || edited.DueDate != nil || edited.Priority != task.PriorityHigh {
		t.Errorf("edited task: %+v", *edited)
	}

	mustRun(t, out, dir, "rm", id)
	if tasks := listJSON(t, out, dir, "-search", "milk"); len(tasks) != 0 {
		t.Errorf("task still listed after rm: %v", tasks)
	}
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"add without title", []string{"add"}, "title is required"},
		{"add bad priority", []string{"add", "-priority", "urgent", "x"}, "invalid priority"},
		{"add bad due", []string{"add", "-due", "soon", "x"}, "invalid due date"},
		{"edit without changes", []string{"edit", "default-move"}, "nothing to change"},
		{"edit unknown id", []string{"edit", "-title", "x", "nope"}, "no task"},
		{"ambiguous prefix", []string{"move", "default", "done"}, "matches 4 tasks"},
		{"move bad status", []string{"move", "default-move", "blocked"}, "invalid status"},
		{"reset without confirmation", []string{"reset"}, "-y"},
		{"bad sort", []string{"ls", "-sort", "random"}, "sort"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, dir := isolate(t)
			_, err := run(t, out, dir, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	out, dir := isolate(t)

	mustRun(t, out, dir, "rm", "default-welcome", "default-move")
	if n := len(listJSON(t, out, dir)); n != 2 {
		t.Fatalf("tasks after rm: got %d, want 2", n)
	}
	text := mustRun(t, out, dir, "reset", "-y")
	if !strings.Contains(text, "4 sample tasks") {
		t.Errorf("reset output: %q", text)
	}
	if n := len(listJSON(t, out, dir)); n != len(task.Defaults()) {
		t.Errorf("tasks after reset: got %d", n)
	}
}

func TestBrokenStorageFallsBack(t *testing.T) {
	out, dir := isolate(t)
	mustRun(t, out, dir, "ls")

	if err := os.WriteFile(filepath.Join(dir, "kanban-tasks.json"), []byte("{broken-json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if n := len(listJSON(t, out, dir)); n != len(task.Defaults()) {
		t.Errorf("tasks: got %d, want defaults", n)
	}
	if !strings.Contains(stderr.(*bytes.Buffer).String(), "could not be loaded") {
		t.Errorf("missing load warning, stderr: %q", stderr.(*bytes.Buffer).String())
	}
}

func TestRecentCommand(t *testing.T) {
	out, dir := isolate(t)

	mustRun(t, out, dir, "recent", "add", "milk")
	mustRun(t, out, dir, "recent", "add", "bread")
	text := mustRun(t, out, dir, "recent", "add", "MILK")
	if text != "1. MILK\n2. bread\n" {
		t.Errorf("recent list: %q", text)
	}
	text = mustRun(t, out, dir, "recent", "rm", "bread")
	if text != "1. MILK\n" {
		t.Errorf("after rm: %q", text)
	}
	text = mustRun(t, out, dir, "recent", "clear")
	if !strings.Contains(text, "No recent searches") {
		t.Errorf("after clear: %q", text)
	}
}

func TestThemeCommand(t *testing.T) {
	out, dir := isolate(t)

	if got := mustRun(t, out, dir, "theme", "dark"); got != "dark\n" {
		t.Errorf("theme dark: %q", got)
	}
	if got := mustRun(t, out, dir, "theme"); got != "dark\n" {
		t.Errorf("stored theme: %q", got)
	}
	if got := mustRun(t, out, dir, "theme", "toggle"); got != "light\n" {
		t.Errorf("toggle: %q", got)
	}
	if _, err := run(t, out, dir, "theme", "sepia"); err == nil {
		t.Error("expected error for unknown theme")
	}
}

func TestConfigCommand(t *testing.T) {
	out, dir := isolate(t)

	text := mustRun(t, out, dir, "-locale", "ko", "config")
	if !strings.Contains(text, "locale") || !strings.Contains(text, "(flag)") {
		t.Errorf("config output missing flag source:\n%s", text)
	}
	if !strings.Contains(text, "(default)") {
		t.Errorf("config output missing defaults:\n%s", text)
	}

	example := mustRun(t, out, dir, "config", "-example")
	if !strings.Contains(example, "storage = ") {
		t.Errorf("example config: %q", example)
	}
}

func TestKoreanLabels(t *testing.T) {
	out, dir := isolate(t)

	text := mustRun(t, out, dir, "-locale", "ko", "ls")
	if strings.Contains(text, "To do (") {
		t.Errorf("expected Korean lane labels:\n%s", text)
	}
}

// chdir changes the working directory for the duration of the test, like
// testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
