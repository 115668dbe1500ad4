package main

import (
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// statusConfig holds configuration for the status command.
type statusConfig struct {
	metricsAddr string
	timeout     time.Duration
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health of a running accountd process",
		Long:  `Query the liveness and readiness endpoints of a running accountd server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.metricsAddr, "metrics-addr", "127.0.0.1:9100", "metrics/health HTTP address of the server")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", 5*time.Second, "timeout for health checks")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	client := &http.Client{Timeout: cfg.timeout}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHECK\tSTATUS")
	fmt.Fprintf(w, "liveness\t%s\n", probe(client, cfg.metricsAddr, "/healthz/liveness"))
	fmt.Fprintf(w, "readiness\t%s\n", probe(client, cfg.metricsAddr, "/healthz/readiness"))
	return w.Flush()
}

func probe(client *http.Client, addr, path string) string {
	resp, err := client.Get("http://" + addr + path)
	if err != nil {
		return "unreachable"
	}
	defer func() {
		//nolint:errcheck // drain and close, errors do not change the verdict
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusOK {
		return "ok"
	}
	return fmt.Sprintf("failing (%d)", resp.StatusCode)
}
