// Package cmd implements the CLI command structure for taskboard.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nibzard/taskboard/internal/config"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run executes the taskboard CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("taskboard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}
	cfg := cws.Config

	// Determine the subcommand
	// If no args or first arg is a flag, use "tui" as default
	subcommand := "tui"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	// Execute the subcommand
	switch subcommand {
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "ls", "list":
		return lsCommand(ctx, cfg, remainingArgs)
	case "add":
		return addCommand(ctx, cfg, remainingArgs)
	case "edit":
		return editCommand(ctx, cfg, remainingArgs)
	case "move", "mv":
		return moveCommand(ctx, cfg, remainingArgs)
	case "rm", "remove":
		return rmCommand(ctx, cfg, remainingArgs)
	case "reset":
		return resetCommand(ctx, cfg, remainingArgs)
	case "recent":
		return recentCommand(ctx, cfg, remainingArgs)
	case "theme":
		return themeCommand(ctx, cfg, remainingArgs)
	case "config":
		return configCommand(cws, remainingArgs)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "taskboard version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "taskboard - A three-lane task board for the terminal")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taskboard [global options] [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui                    Open the board (default command)")
	fmt.Fprintln(w, "  ls                     List tasks grouped by status")
	fmt.Fprintln(w, "  add <title>            Create a task")
	fmt.Fprintln(w, "  edit <id>              Change fields of a task")
	fmt.Fprintln(w, "  move <id> <status>     Move a task to another lane")
	fmt.Fprintln(w, "  rm <id>                Delete a task")
	fmt.Fprintln(w, "  reset -y               Replace all tasks with the sample board")
	fmt.Fprintln(w, "  recent [add|rm|clear]  Show or change recent searches")
	fmt.Fprintln(w, "  theme [light|dark|toggle]  Show or change the theme")
	fmt.Fprintln(w, "  config [-example]      Show the effective configuration")
	fmt.Fprintln(w, "  version                Show version information")
	fmt.Fprintln(w, "  help                   Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options (use with 'ls' command):")
	fmt.Fprintln(w, "  -status string    Filter by status (todo|in-progress|done)")
	fmt.Fprintln(w, "  -priority string  Filter by priority (low|medium|high)")
	fmt.Fprintln(w, "  -search string    Filter by title")
	fmt.Fprintln(w, "  -sort string      Sort order (newest|oldest|priority-high|priority-low)")
	fmt.Fprintln(w, "  -json             Print JSON")
	fmt.Fprintln(w, "  -v                Show more details")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Add / Edit Options:")
	fmt.Fprintln(w, "  -title string        Title (edit only)")
	fmt.Fprintln(w, "  -desc string         Description")
	fmt.Fprintln(w, "  -priority string     Priority (low|medium|high)")
	fmt.Fprintln(w, "  -status string       Status (todo|in-progress|done)")
	fmt.Fprintln(w, "  -due string          Due date YYYY-MM-DD (empty clears on edit)")
	fmt.Fprintln(w, "  -tags string         Comma-separated tags")
}
