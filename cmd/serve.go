package cmd

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/datawash-cli/internal/server"
)

var (
	serveAddr      string
	serveDecimal   string
	serveThousands string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference cleaning endpoint",
	Long: `Run an HTTP service that accepts a multipart "file" field on POST /upload and
answers with the cleaned rows and cleaning stats as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := parseSeparators(serveDecimal, serveThousands)
		if err != nil {
			return err
		}
		addr := cfg.ServeAddr
		if cmd.Flags().Changed("addr") && serveAddr != "" {
			addr = serveAddr
		}
		log, closeLog, err := newLogger(os.Stderr)
		if err != nil {
			return err
		}
		defer closeLog()

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		srv := server.New(server.Options{Logger: log, MaxBytes: cfg.MaxUploadBytes(), Clean: opt})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Serve(gctx, ln) })

		okf("Serving on http://%s%s", ln.Addr(), server.UploadPath)
		log.Info("server started", "addr", ln.Addr().String(), "max_upload_mb", cfg.MaxUploadMB)
		g.Go(func() error {
			<-gctx.Done()
			if ctx.Err() != nil {
				log.Info("shutdown requested")
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}
		okf("Server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config serve_addr)")
	serveCmd.Flags().StringVar(&serveDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	serveCmd.Flags().StringVar(&serveThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	rootCmd.AddCommand(serveCmd)
}
