package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/wardriver/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configExampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print the default configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigExample(cmd.OutOrStdout())
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file the way "run" does, including WARDRIVER_* environment
overrides, and report every problem found.

Examples:
  wardriver config validate -c wardriver.yml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigValidate(configFile, cmd.OutOrStdout())
	},
}

func init() {
	configCmd.AddCommand(configExampleCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigExample(w io.Writer) error {
	out, err := config.Example()
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func runConfigValidate(path string, w io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("INVALID: %w", err)
	}
	fmt.Fprintf(w, "VALID: interface %q, source %s, output %s\n",
		cfg.Interface, cfg.Capture.Source, cfg.Output.Path)
	return nil
}
