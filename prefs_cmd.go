package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"chatoverlay/prefs"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Inspect or reset the saved preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asYAML, _ := cmd.Flags().GetBool("yaml")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p := prefs.Load(cfg.PrefsPath())

		var out []byte
		if asYAML {
			// Round-trip through JSON so the YAML keys match the file.
			var m map[string]interface{}
			data, err := json.Marshal(p)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(data, &m); err != nil {
				return err
			}
			out, err = yaml.Marshal(m)
			if err != nil {
				return err
			}
		} else {
			out, err = json.MarshalIndent(p, "", "  ")
			if err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var prefsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the preferences file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.PrefsPath())
		return nil
	},
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default preferences",
	Long:  `Overwrites the preferences file with defaults. A running overlay keeps its current state until it changes a preference.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := prefs.Save(cfg.PrefsPath(), prefs.Default()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reset %s\n", cfg.PrefsPath())
		return nil
	},
}

func init() {
	prefsShowCmd.Flags().Bool("yaml", false, "print as YAML")
	prefsCmd.AddCommand(prefsShowCmd, prefsPathCmd, prefsResetCmd)
	rootCmd.AddCommand(prefsCmd)
}
