// Command embediq answers questions about local documents using
// retrieval-augmented generation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/embediq/internal/adapters/driving/cli"
	"github.com/custodia-labs/embediq/internal/adapters/driving/mcp"
	"github.com/custodia-labs/embediq/internal/app"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
	"github.com/custodia-labs/embediq/internal/logger"
)

// Set by the release build with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mcp.Version = version

	err := cli.Execute(ctx, version, cli.Bootstrap{
		Settings: loadSettings,
		Services: loadServices,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		code := cli.ExitCode(err)
		if code == cli.ExitConfig {
			fmt.Fprintln(os.Stderr, "Check your settings with: embediq config show")
		}
		stop()
		os.Exit(code)
	}
}

func loadSettings(configPath string) (driving.SettingsService, error) {
	svc, _, err := app.NewSettings(app.Options{ConfigPath: configPath})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func loadServices(ctx context.Context, configPath string) (*cli.Services, func() error, error) {
	a, err := app.New(ctx, app.Options{ConfigPath: configPath})
	if err != nil {
		return nil, nil, err
	}
	for _, w := range a.Warnings {
		logger.Warn("%s", w)
	}

	return &cli.Services{
		Settings:  a.Settings,
		Ingest:    a.Ingest,
		Document:  a.Document,
		Chat:      a.Chat,
		Retriever: a.Retriever,
	}, a.Close, nil
}
