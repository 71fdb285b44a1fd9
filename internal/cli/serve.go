package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-attention/internal/guard"
	"github.com/teslashibe/go-attention/internal/log"
)

const shutdownTimeout = 5 * time.Second

var (
	serveAddr  string
	serveMuted bool
	serveMesh  bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Accept detector frames and serve the dashboard",
		Long: `Starts a session, accepts landmark frames on /ws/detector and serves
the dashboard API. Ctrl+C finalizes the session and writes the report.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveMuted, "muted", false, "start with the alarm muted")
	serveCmd.Flags().BoolVar(&serveMesh, "draw-mesh", false, "ask detectors to overlay the face mesh")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if cmd.Flags().Changed("muted") {
		cfg.Alert.Muted = serveMuted
	}
	if cmd.Flags().Changed("draw-mesh") {
		cfg.Server.DrawMesh = serveMesh
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, err := guard.New(ctx, cfg, log.L(), guard.Options{Serve: true})
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		if err := g.Server.Start(); err != nil {
			errCh <- fmt.Errorf("dashboard: %w", err)
		}
	}()
	go func() {
		if err := g.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "👁️  Watching session %s on %s (Ctrl+C to stop)\n",
		g.Monitor.Session().ID(), cfg.Server.Addr)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	stop()

	fmt.Fprintln(out, "\n👋 Shutting down...")
	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	report, err := g.Close(closeCtx)
	if report != nil {
		printReport(out, report)
	}
	fmt.Fprintln(out, "✅ Goodbye!")
	return errors.Join(runErr, err)
}
