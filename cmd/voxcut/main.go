// voxcut segments voxel volumes with graph cuts.
//
// Usage:
//
//	voxcut segment --volume in.vxc --seeds seeds.vxc --output labels.vxc [flags]
//	voxcut init-config [--output voxcut.yaml]
//	voxcut inspect FILE...
//
// Volumes, seed sets and label images are volio containers. Settings come
// from the YAML file named by --config, VOXCUT_* environment variables and
// finally command-line flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// command is one subcommand.
type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{"segment", "segment a volume from a seed set", runSegment},
	{"init-config", "write the default configuration", runInitConfig},
	{"inspect", "print container headers", runInspect},
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		return nil
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(ctx, args[1:], stdout, stderr)
		}
	}
	printUsage(stderr)

	return fmt.Errorf("unknown command %q", args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "voxcut segments voxel volumes with graph cuts.\n\nUsage:\n  voxcut <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-12s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nRun \"voxcut <command> --help\" for the flags of a command.\n")
}

// parse parses args into fs. It returns done=true when help was printed.
func parse(fs *pflag.FlagSet, args []string, stderr io.Writer) (done bool, err error) {
	fs.SetOutput(stderr)
	if err = fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}

		return false, err
	}

	return false, nil
}
