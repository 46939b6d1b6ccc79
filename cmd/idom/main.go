package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vango-dev/idom/internal/config"
	"github.com/vango-dev/idom/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type globalFlags struct {
	configPath string
	debug      bool
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "idom",
		Short: "Patch HTML trees in place",
		Long: `idom replays patch programs against HTML and reports how the
tree was updated.

Commands:
  • patch    apply a program to markup and print the result
  • serve    run the patch playground (HTTP + WebSocket)
  • errors   list error codes or explain one
  • version  print build information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to idom.json (default: nearest idom.json)")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable engine debug assertions")

	rootCmd.AddCommand(
		patchCmd(&flags),
		serveCmd(&flags),
		errorsCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration named by --config, or the nearest
// idom.json. Defaults are used when no file exists.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
		var ie *errors.Error
		if stderrors.As(err, &ie) && ie.Code == "E302" {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}
	if flags.debug {
		cfg.Debug = true
	}
	cfg.Apply()
	cfg.ApplyColor(os.Stderr)
	return cfg, nil
}

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
)

// success prints a success message to stderr.
func success(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message to stderr.
func info(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s\n", fmt.Sprintf(format, args...))
}
