package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vango-dev/statekit/internal/errors"
	"github.com/vango-dev/statekit/pkg/inject"
	"github.com/vango-dev/statekit/pkg/reactive"
)

func demoCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the counter walkthrough",
		Long: `Run a short walkthrough: a lazily registered Counter service, a view
that re-renders when the count changes, and disposal of both.

Examples:
  statekit demo
  statekit demo --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout(), verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every registry event")

	return cmd
}

func runDemo(out io.Writer, verbose bool) error {
	logger := discardLogger()
	tracker := reactive.NewTracker(reactive.WithLogger(logger))

	var hook inject.Hook
	if verbose {
		hook = func(event inject.Event, key inject.Key) {
			fmt.Fprintf(out, "  [registry] %s %s\n", event, key)
		}
	}
	registry := inject.New(inject.WithLogger(logger), inject.WithHook(hook))

	inject.LazyPut(registry, func() (*Counter, error) {
		return newCounter(tracker, logger), nil
	})
	fmt.Fprintf(out, "registered Counter lazily (registered=%t)\n", inject.IsRegistered[*Counter](registry))

	counter, err := inject.Find[*Counter](registry)
	if err != nil {
		return errors.Classify(err)
	}

	view := reactive.NewView(tracker, func() error {
		fmt.Fprintf(out, "render: count=%d\n", counter.Count.Get())
		return nil
	}, reactive.WithFallback(func(err error) {
		fmt.Fprintf(out, "render failed: %v\n", err)
	}))
	if err := view.Render(); err != nil {
		return errors.Classify(err)
	}

	counter.Increment()
	counter.Increment()

	view.Dispose()
	counter.Increment()
	fmt.Fprintf(out, "view disposed; count=%d without re-render\n", counter.Count.Peek())

	again := inject.MustFind[*Counter](registry)
	fmt.Fprintf(out, "same instance on second Find: %t\n", again == counter)

	registry.Reset()
	fmt.Fprintf(out, "reset; registered=%t\n", inject.IsRegistered[*Counter](registry))

	_, err = inject.Find[*Counter](registry)
	fmt.Fprintf(out, "find after reset: %s\n", errors.Classify(err).FormatCompact())
	return nil
}
