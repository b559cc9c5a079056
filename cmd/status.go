package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/kozaktomas/face-compare/internal/session"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session state and check the comparison service",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().Bool("json", false, "Output as JSON")
}

// StatusOutput is the JSON form of the status command
type StatusOutput struct {
	Session        session.State `json:"session"`
	MarkerStore    string        `json:"marker_store"`
	ServiceURL     string        `json:"service_url"`
	ServiceOK      bool          `json:"service_ok"`
	ServiceMessage string        `json:"service_message,omitempty"`
	ServiceError   string        `json:"service_error,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	jsonOutput := mustGetBool(cmd, "json")
	ctx := context.Background()

	gate, closeStore, err := openGate(ctx, cfg, nil, newLogger())
	if err != nil {
		return err
	}
	defer closeStore()

	out := StatusOutput{
		Session:     gate.State(),
		MarkerStore: cfg.Session.MarkerPath,
		ServiceURL:  cfg.Service.URL,
	}
	if cfg.Database.URL != "" {
		out.MarkerStore = "postgresql"
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if msg, err := client.Ping(pingCtx); err != nil {
		out.ServiceError = err.Error()
	} else {
		out.ServiceOK = true
		out.ServiceMessage = msg
	}

	if jsonOutput {
		return outputJSON(out)
	}

	fmt.Printf("Session:  %s (%s)\n", out.Session, out.MarkerStore)
	if out.ServiceOK {
		fmt.Printf("Service:  %s ok %q\n", out.ServiceURL, out.ServiceMessage)
	} else {
		fmt.Printf("Service:  %s unreachable: %s\n", out.ServiceURL, out.ServiceError)
	}
	return nil
}
