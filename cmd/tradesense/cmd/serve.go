package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradesense/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the refresh loop and the HTTP API",
	Long: `Run refresh cycles on a timer and serve signals, snapshots, settings
and Prometheus metrics over HTTP until interrupted.

The refresh period is refresh.every from the config file, falling back
to the notification interval in user settings.

Endpoints:
  GET  /health
  GET  /signals?pair=EUR/USD&limit=20
  GET  /signals/:id
  POST /signals/refresh
  GET  /snapshot?pair=EUR/USD
  GET  /settings        PUT /settings        POST /settings/reset
  GET  /metrics

Example:
  tradesense serve -c tradesense.yaml --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr   string
	serveNoLoop bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.api_addr)")
	serveCmd.Flags().BoolVar(&serveNoLoop, "no-loop", false, "serve the API without the background refresh loop")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	every, err := cfg.Refresh.ParseDuration()
	if err != nil {
		return err
	}
	pairs, err := cfg.PairList()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log, appOptions{withHistory: true, notify: true})
	if err != nil {
		return err
	}
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.APIAddr
	}

	h := api.NewAPIHandler(api.Deps{
		Scanner:  a.scanner,
		History:  a.history,
		Settings: a.settings,
		Metrics:  a.metrics,
		Logger:   log,
	})

	errCh := make(chan error, 2)
	go func() { errCh <- h.Serve(ctx, addr) }()
	running := 1
	if !serveNoLoop {
		running++
		go func() { errCh <- a.scanner.Loop(ctx, every, pairs) }()
	}

	// The first goroutine to return stops the other.
	var first error
	for i := 0; i < running; i++ {
		err := <-errCh
		if err != nil && !errors.Is(err, context.Canceled) && first == nil {
			first = err
		}
		cancel()
	}

	log.Info("shutdown complete")
	return first
}
