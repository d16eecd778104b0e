// jailcheck reports which defendants on a prosecutor's case list are
// currently booked into the county jail.
//
// Usage:
//
//	jailcheck check <defendants.csv|defendants.json> [-o dir]
//	jailcheck serve [--addr :8080]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jailcheck/internal/platform/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	verbose    bool
}

var rootCmd = &cobra.Command{
	Use:   "jailcheck",
	Short: "Check a defendant list against the county jail roster",
	Long: "jailcheck reads a defendant list, downloads the complete current-inmate\n" +
		"roster from the jail booking service and reports who is in custody.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "Path to a YAML config file")
	pf.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

// loadConfig reads the config file and environment, then applies the
// persistent flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if rootFlags.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
