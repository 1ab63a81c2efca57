package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"chatoverlay/bridge"
	"chatoverlay/history"
)

var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Control a running overlay over its local socket",
}

var ctlInvokeCmd = &cobra.Command{
	Use:   "invoke <command> [json-args]",
	Short: "Run a command in the running overlay",
	Long: `Runs a command in the running overlay and prints its JSON result.

Example:
  chatoverlay ctl invoke set_font_size '{"font_size": 1.5}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ctlClient()
		if err != nil {
			return err
		}
		var raw json.RawMessage
		if len(args) == 2 {
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("arguments must be a JSON object")
			}
			raw = json.RawMessage(args[1])
		}
		result, err := client.Invoke(args[0], raw)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var ctlOpenCmd = &cobra.Command{
	Use:   "open <stream-url-or-id>",
	Short: "Open a stream's chat in the running overlay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ctlClient()
		if err != nil {
			return err
		}
		payload, err := json.Marshal(map[string]string{"stream_id": args[0]})
		if err != nil {
			return err
		}
		result, err := client.Invoke("open_chat", payload)
		if err != nil {
			return err
		}
		var url string
		if err := json.Unmarshal(result, &url); err != nil {
			return fmt.Errorf("unexpected result: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "opened %s\n", url)
		return nil
	},
}

var ctlCommandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the commands the running overlay serves",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ctlClient()
		if err != nil {
			return err
		}
		names, err := client.Commands()
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

var ctlPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that an overlay is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ctlClient()
		if err != nil {
			return err
		}
		if err := client.Ping(); err != nil {
			return fmt.Errorf("overlay not reachable: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "pong")
		return nil
	},
}

var ctlRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently opened chats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		client, err := ctlClient()
		if err != nil {
			return err
		}
		payload, err := json.Marshal(map[string]int{"limit": limit})
		if err != nil {
			return err
		}
		result, err := client.Invoke("recent_chats", payload)
		if err != nil {
			return err
		}
		var entries []history.Entry
		if err := json.Unmarshal(result, &entries); err != nil {
			return fmt.Errorf("unexpected result: %w", err)
		}
		printRecent(cmd.OutOrStdout(), entries)
		return nil
	},
}

func init() {
	ctlRecentCmd.Flags().Int("limit", 20, "maximum number of chats")
	ctlCmd.AddCommand(ctlInvokeCmd, ctlOpenCmd, ctlCommandsCmd, ctlPingCmd, ctlRecentCmd)
	rootCmd.AddCommand(ctlCmd)
}

func ctlClient() (*bridge.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bridge.NewClient(cfg.SocketPath()), nil
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		fmt.Fprintln(w, "null")
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func printRecent(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no chats opened yet")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STREAM\tOPENED\tCOUNT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", e.StreamID, e.OpenedAt.Local().Format(time.DateTime), e.OpenCount)
	}
	tw.Flush()
}
