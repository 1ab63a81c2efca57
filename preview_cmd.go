package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"chatoverlay/logging"
	"chatoverlay/overlay"
	"chatoverlay/prefs"
	"chatoverlay/preview"
	"chatoverlay/render"
)

var previewCmd = &cobra.Command{
	Use:   "preview <stream-url-or-id>",
	Short: "Open a chat in a Playwright browser with the saved style applied",
	Long: `Loads a stream's chat in Chromium through Playwright and applies the saved
preferences exactly as the overlay window would. Use --screenshot to save an
image of the styled chat.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("screenshot", "", "write a PNG of the styled chat to this path")
	previewCmd.Flags().Bool("headed", false, "show the browser window")
	previewCmd.Flags().Duration("hold", 0, "keep the browser open this long after styling")
	previewCmd.Flags().Bool("skip-install", false, "assume the Playwright browsers are installed")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	screenshot, _ := cmd.Flags().GetString("screenshot")
	headed, _ := cmd.Flags().GetBool("headed")
	hold, _ := cmd.Flags().GetDuration("hold")
	skipInstall, _ := cmd.Flags().GetBool("skip-install")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logging.Configure(cfg.LogDir(), cfg.Log.Debug, cmd.ErrOrStderr())
	log := logging.MustLogger("preview")
	defer log.Close()

	streamID, err := overlay.ParseStreamID(args[0])
	if err != nil {
		return err
	}
	chatURL, err := overlay.ChatURL(cfg.Chat.BaseURL, streamID)
	if err != nil {
		return err
	}

	renderer, err := render.New()
	if err != nil {
		return err
	}

	b, err := preview.Launch(preview.Options{
		Headless:    cfg.Preview.Headless && !headed,
		Width:       cfg.Window.Width,
		Height:      cfg.Window.Height,
		Timeout:     cfg.Preview.Timeout,
		SkipInstall: skipInstall,
	}, log)
	if err != nil {
		return err
	}
	defer b.Close()

	orch, err := overlay.New(overlay.Options{
		Store:             prefs.Open(cfg.PrefsPath()),
		Renderer:          renderer,
		Surfaces:          b,
		Dialog:            b,
		Logger:            log.With("overlay"),
		ChatBaseURL:       cfg.Chat.BaseURL,
		TargetPattern:     cfg.Chat.TargetPattern,
		FontImportBaseURL: cfg.Fonts.ImportBaseURL,
	})
	if err != nil {
		return err
	}

	styled := make(chan string, 1)
	b.OnLoad(func(url string) {
		orch.PageLoaded(url)
		if orch.IsTarget(url) {
			select {
			case styled <- url:
			default:
			}
		}
	})

	log.Infof("opening %s", chatURL)
	if err := b.Navigate(chatURL); err != nil {
		return err
	}

	select {
	case url := <-styled:
		log.Infof("styled %s", url)
	case <-time.After(cfg.Preview.Timeout):
		return fmt.Errorf("timed out waiting for %s to load", chatURL)
	}

	if screenshot != "" {
		if err := b.Screenshot(screenshot); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", screenshot)
	}
	if hold > 0 {
		time.Sleep(hold)
	}
	return nil
}
