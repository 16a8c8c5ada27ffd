package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/debatecoach/internal/config"
)

var configReveal bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd)
	configGetCmd.Flags().BoolVar(&configReveal, "reveal", false, "print secrets unmasked")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the config file",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every config key with its value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listConfig(os.Stdout, cfgPath)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getConfig(os.Stdout, cfgPath, args[0], configReveal)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one config value",
	Long: `Set one config value. The value is checked before it is written:
durations (research.cache_ttl, session.idle_ttl) take Go syntax like 30m,
session.sweep_schedule takes a cron expression or @every, and URL keys need a scheme.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setConfig(os.Stdout, cfgPath, args[0], args[1])
	},
}

// listConfig prints the config with secrets masked. An invalid file is
// still listed so it can be repaired with set.
func listConfig(w io.Writer, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	values, err := config.ListValues(cfg, true)
	if err != nil {
		return fmt.Errorf("list config: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, k := range config.Keys() {
		v, ok := values[k]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%v\n", k, v)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(w, "\nwarning: %v\n", err)
	}
	return nil
}

func getConfig(w io.Writer, path, key string, reveal bool) error {
	val, err := config.GetValue(path, key)
	if err != nil {
		return err
	}
	if !reveal {
		val = config.MaskSecrets(map[string]any{key: val})[key]
	}
	fmt.Fprintln(w, val)
	return nil
}

func setConfig(w io.Writer, path, key, value string) error {
	if _, err := config.Load(path); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.SetValue(path, key, value); err != nil {
		return err
	}
	display := value
	if config.IsSecretKey(key) {
		display = "***"
	}
	fmt.Fprintf(w, "Set %s = %s\n", key, display)
	return nil
}
