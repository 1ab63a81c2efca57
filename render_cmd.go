package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatoverlay/overlay"
	"chatoverlay/prefs"
	"chatoverlay/render"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the style injection script for the saved preferences",
	Long: `Renders the script that is evaluated in the chat page after it loads,
using the saved preferences. With --css only the style sheet is printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cssOnly, _ := cmd.Flags().GetBool("css")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		r, err := render.New()
		if err != nil {
			return err
		}

		p := prefs.Load(cfg.PrefsPath())
		in := overlay.StyleInputs(p, cfg.Fonts.ImportBaseURL)

		var out string
		if cssOnly {
			out, err = r.Stylesheet(in)
		} else {
			out, err = r.Render(in)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	renderCmd.Flags().Bool("css", false, "print only the style sheet")
	rootCmd.AddCommand(renderCmd)
}
