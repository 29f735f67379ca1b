package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/wardriver/internal/config"
	"firestige.xyz/wardriver/internal/daemon"
)

var (
	runInterface string
	runPIDFile   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Capture sightings in the foreground until interrupted",
	Long: `Run the capture pipeline in the foreground. SIGINT or SIGTERM stops it after
the buffered sightings are written and monitor mode is turned off.

Examples:
  wardriver run                       # /etc/wardriver/config.yml or built-in defaults
  wardriver run -c wardriver.yml      # explicit config file
  wardriver run -i wlan0              # override the wireless interface`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []daemon.Option
		if runPIDFile != "" {
			opts = append(opts, daemon.WithPIDFile(runPIDFile))
		}
		return runRun(cmd.Context(), configFile, runInterface, func(ctx context.Context, cfg *config.Config) error {
			return daemon.Run(ctx, cfg, opts...)
		})
	},
}

func init() {
	runCmd.Flags().StringVarP(&runInterface, "interface", "i", "", "wireless interface (overrides config)")
	runCmd.Flags().StringVar(&runPIDFile, "pid-file", "", "write the process ID to this file")
}

// runRun loads the configuration, applies flag overrides and hands it to run.
func runRun(ctx context.Context, path, iface string, run func(context.Context, *config.Config) error) error {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return err
	}
	if iface != "" {
		cfg.Interface = iface
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return run(ctx, cfg)
}
