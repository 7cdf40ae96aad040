package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/dashboard"
)

// serveDashboardCmd starts the monitoring dashboard on its own, with no
// files to sanitize, useful for checking the status page or websocket
// stream independently of a real run.
var serveDashboardCmd = &cobra.Command{
	Use:   "serve-dashboard",
	Short: "Run the status dashboard standalone, without sanitizing anything",
	Args:  cobra.NoArgs,
	RunE:  runServeDashboard,
}

func init() {
	rootCmd.AddCommand(serveDashboardCmd)
	serveDashboardCmd.Flags().String("addr", ":8090", "listen address for the dashboard's HTTP and websocket endpoints")
}

func runServeDashboard(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "dashboard listening on %s\n", addr)
	return dashboard.New().Serve(ctx, addr)
}
