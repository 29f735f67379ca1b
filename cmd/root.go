// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wardriver",
	Short: "wardriver - passive 802.11 beacon and probe request logger",
	Long: `wardriver puts a wireless interface into monitor mode, captures beacon and
probe request frames, tags every advertised network name with the current GPS
fix and appends the sightings to a log file (and optionally stdout or Kafka).

Nothing is ever transmitted.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/wardriver/config.yml",
		"config file path (defaults are used when it does not exist)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(interfacesCmd)
	rootCmd.AddCommand(configCmd)
}
