package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/debatecoach/internal/types"
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionClearCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions on the running daemon",
}

// daemonClient talks to the daemon's HTTP API. Sessions live in the
// daemon's memory, so there is nothing to read from disk.
type daemonClient struct {
	base string
	http *http.Client
}

func newDaemonClient() (*daemonClient, error) {
	cfg := loadConfig()
	if !cfg.HTTP.Enabled {
		return nil, fmt.Errorf("http api is disabled; enable http.enabled to manage sessions")
	}
	return &daemonClient{
		base: "http://" + cfg.HTTP.Listen,
		http: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (c *daemonClient) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contact daemon (is it running?): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("session not found")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *daemonClient) list(ctx context.Context) ([]types.SessionSummary, error) {
	var list []types.SessionSummary
	if err := c.do(ctx, http.MethodGet, "/api/sessions", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *daemonClient) delete(ctx context.Context, id types.SessionID) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(string(id)), nil)
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newDaemonClient()
		if err != nil {
			return err
		}
		list, err := client.list(cmd.Context())
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		if len(list) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMODE\tPRO\tCON\tSOURCES\tUPDATED")
		for _, s := range list {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
				s.ID,
				s.Mode,
				s.Pro,
				s.Con,
				s.Sources,
				s.UpdatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear <id|all>",
	Short: "Clear a session or all sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newDaemonClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if args[0] != "all" {
			if err := client.delete(ctx, types.SessionID(args[0])); err != nil {
				return fmt.Errorf("clear session %s: %w", args[0], err)
			}
			fmt.Fprintf(os.Stdout, "Session %s cleared.\n", args[0])
			return nil
		}

		list, err := client.list(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		for _, s := range list {
			if err := client.delete(ctx, s.ID); err != nil {
				return fmt.Errorf("clear session %s: %w", s.ID, err)
			}
		}
		fmt.Printf("All sessions cleared (%d).\n", len(list))
		return nil
	},
}
