package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show the mediafront server's health",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/healthz")
			if err != nil {
				return err
			}
			var h struct {
				Status   string `json:"status"`
				Version  string `json:"version"`
				Uptime   string `json:"uptime"`
				Store    string `json:"store"`
				Sessions int    `json:"sessions"`
			}
			if err := json.Unmarshal(resp.Data, &h); err != nil {
				return fmt.Errorf("decode health: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status:   %s\n", h.Status)
			fmt.Fprintf(out, "Version:  %s\n", h.Version)
			fmt.Fprintf(out, "Uptime:   %s\n", h.Uptime)
			fmt.Fprintf(out, "Store:    %s\n", h.Store)
			fmt.Fprintf(out, "Sessions: %d\n", h.Sessions)
			return nil
		},
	}
}
