package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/embediq/internal/adapters/driving/api"
	"github.com/custodia-labs/embediq/internal/adapters/driving/watcher"
	"github.com/custodia-labs/embediq/internal/connectors/filesystem"
	"github.com/custodia-labs/embediq/internal/core/domain"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API for uploading documents and chatting about them.

Endpoints:
  POST   /api/files/upload     upload files (multipart field "files")
  GET    /api/files            list documents
  DELETE /api/files/:fileId    delete a document
  POST   /api/chat/message     ask a question
  GET    /api/chat/history     session history (?sessionId=)
  GET    /health               health check

With --watch, files in the directory are ingested at start and kept in step
with the index as they change.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr  string
	serveWatch string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings)")
	serveCmd.Flags().StringVar(&serveWatch, "watch", "", "directory to ingest and watch for changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if ingestService == nil || documentService == nil || chatService == nil {
		return errNotConfigured("ingest, document or chat")
	}

	addr := serveAddr
	if addr == "" {
		addr = domain.DefaultAppSettings().Server.Addr
		if settingsService != nil {
			if settings, err := settingsService.Get(); err == nil && settings.Server.Addr != "" {
				addr = settings.Server.Addr
			}
		}
	}
	limits := uploadLimits()

	server, err := api.NewServer(api.Services{
		Ingest:   ingestService,
		Document: documentService,
		Chat:     chatService,
	}, api.WithUploadLimits(limits), api.WithVersion(version))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return server.Run(ctx, addr)
	})

	if serveWatch != "" {
		source := filesystem.New(serveWatch, filesystem.WithMaxFileSize(limits.MaxFileSize))
		defer source.Close()
		w := watcher.New(source, ingestService, documentService)
		g.Go(func() error {
			err := w.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watching %s: %w", serveWatch, err)
			}
			return nil
		})
		cmd.Printf("Watching %s\n", source.RootPath())
	}

	cmd.Printf("EmbedIQ API listening on %s\n", addr)
	return g.Wait()
}
