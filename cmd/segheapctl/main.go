// Command segheapctl is a debugging and demo entry point for package alloc:
// it loads a config.Options file, constructs a Heap against either backend,
// runs an operation script through it, and prints the resulting Stats. It is
// not a libc driver harness -- it never aliases libc symbols and nothing
// else in this module depends on it.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-colorable"

	"github.com/wtarnawska/segheap/config"
	"github.com/wtarnawska/segheap/script"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to config.Default())")
	scriptPath := flag.String("script", "", "path to an operation script (see package script)")
	verbose := flag.Int("verbose", 0, "checker verbosity: 0 silent, 1 print+verify, 2 print-only")
	flag.Parse()

	opts := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		opts = loaded
	}
	opts.Verbose = *verbose

	h, err := opts.NewHeap()
	if err != nil {
		return fmt.Errorf("segheapctl: constructing heap: %w", err)
	}

	out := colorable.NewColorableStdout()

	if *scriptPath != "" {
		f, err := os.Open(*scriptPath)
		if err != nil {
			return fmt.Errorf("segheapctl: %w", err)
		}
		defer f.Close()

		res, err := script.Run(h, f)
		if err != nil {
			fmt.Fprintf(out, "\x1b[31msegheapctl: script failed: %v\x1b[0m\n", err)
			return err
		}
		fmt.Fprintf(out, "\x1b[32mran %d operations\x1b[0m\n", len(res.Steps))
	}

	if opts.Verbose >= 1 {
		if err := h.CheckHeap(opts.Verbose, out); err != nil {
			return fmt.Errorf("segheapctl: %w", err)
		}
	}

	fmt.Fprintln(out, h.Stats().String())
	return nil
}
