package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/statekit/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌┬┐┌─┐┌┬┐┌─┐┬┌─┬┌┬┐
  └─┐ │ ├─┤ │ ├┤ ├┴┐│ │
  └─┘ ┴ ┴ ┴ ┴ └─┘┴ ┴┴ ┴
`

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "statekit",
		Short: "Reactive state and dependency registry toolkit",
		Long: `statekit pairs fine-grained observables with a typed dependency
registry that manages service lifecycles.

  • Observables that notify only the observers that read them
  • Lazy, async, scoped and tagged registrations
  • Live devtools inspector with Prometheus metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		demoCmd(),
		serveCmd(),
		versionCmd(),
	)
	return root
}

// printBanner prints the statekit ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
