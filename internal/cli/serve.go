package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koustreak/bucketgallery/internal/credentials"
	"github.com/koustreak/bucketgallery/internal/session"
	"github.com/koustreak/bucketgallery/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr      string
		ephemeral bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the gallery on a local address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			if ephemeral {
				a.creds = credentials.NewMemoryStore(nil)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "keep credentials in memory only")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	sess, err := session.Open(ctx, a.creds, session.Options{
		Client:  a.clientOptions(),
		Gallery: a.galleryOptions(),
		Logger:  a.log,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	srv, err := web.New(sess, web.Options{
		MaxUploadBytes: a.cfg.Server.MaxUploadBytes,
		RequestTimeout: a.cfg.Gallery.RequestTimeout,
		Logger:         a.log,
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.With().Str("addr", httpSrv.Addr).Str("mode", sess.Mode().String()).Logger().Info("listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
