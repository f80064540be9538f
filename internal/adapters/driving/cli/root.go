// Package cli implements the embediq command line.
package cli

import (
	"context"
	"errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
	"github.com/custodia-labs/embediq/internal/logger"
)

// Command annotations controlling what prepare loads.
const (
	annotationLoad = "embediq.load"
	loadNothing    = "none"
	loadSettings   = "settings"
)

var version = "dev"

// Services holds the driving ports used by the commands.
type Services struct {
	Settings  driving.SettingsService
	Ingest    driving.IngestService
	Document  driving.DocumentService
	Chat      driving.ChatService
	Retriever driving.Retriever
}

// Bootstrap builds services on first use. Either function may be nil.
type Bootstrap struct {
	// Settings opens the settings store without contacting any provider.
	Settings func(configPath string) (driving.SettingsService, error)

	// Services builds everything. The returned function releases resources.
	Services func(ctx context.Context, configPath string) (*Services, func() error, error)
}

var (
	settingsService driving.SettingsService
	ingestService   driving.IngestService
	documentService driving.DocumentService
	chatService     driving.ChatService
	retriever       driving.Retriever

	bootstrap Bootstrap
	release   func() error

	verbose    bool
	configPath string
	envFile    string
	preload    []string
)

var rootCmd = &cobra.Command{
	Use:   "embediq",
	Short: "Ask questions about your documents",
	Long: `EmbedIQ splits documents into overlapping chunks, embeds them and answers
questions using the passages most similar to each question.

Documents are held in memory for the life of the process. Use --path to load
files or directories before a command runs, or run 'embediq serve' to keep
an index alive behind the HTTP API.`,
	SilenceUsage:       true,
	PersistentPreRunE:  prepare,
	PersistentPostRunE: finish,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.embediq/config.toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load")
	rootCmd.PersistentFlags().StringSliceVar(&preload, "path", nil, "files or directories to ingest before running")
}

// SetServices installs ready-made services, bypassing the bootstrap.
func SetServices(s *Services) {
	settingsService = s.Settings
	ingestService = s.Ingest
	documentService = s.Document
	chatService = s.Chat
	retriever = s.Retriever
}

// Execute runs the root command.
func Execute(ctx context.Context, v string, boot Bootstrap) error {
	version = v
	bootstrap = boot
	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails.
	return errors.Join(err, finish(nil, nil))
}

// Process exit statuses.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitConfig = 2
)

// ExitCode maps a command error to the process exit status. Errors of the
// configuration class exit with ExitConfig.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case domain.IsConfigurationError(err):
		return ExitConfig
	default:
		return ExitFailed
	}
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	loadEnvFile()

	switch cmd.Annotations[annotationLoad] {
	case loadNothing:
		return nil
	case loadSettings:
		return ensureSettings()
	}

	if err := ensureServices(cmd.Context()); err != nil {
		return err
	}
	if len(preload) == 0 {
		return nil
	}
	_, err := ingestPaths(cmd, preload)
	return err
}

func finish(_ *cobra.Command, _ []string) error {
	if release == nil {
		return nil
	}
	err := release()
	release = nil
	return err
}

func loadEnvFile() {
	if envFile == "" {
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		logger.Debug("No env file loaded from %s: %v", envFile, err)
	}
}

func ensureSettings() error {
	if settingsService != nil || bootstrap.Settings == nil {
		return nil
	}
	svc, err := bootstrap.Settings(configPath)
	if err != nil {
		return err
	}
	settingsService = svc
	return nil
}

func ensureServices(ctx context.Context) error {
	if chatService != nil || bootstrap.Services == nil {
		return nil
	}
	svcs, closer, err := bootstrap.Services(ctx, configPath)
	if err != nil {
		return err
	}
	SetServices(svcs)
	release = closer
	return nil
}

// errNotConfigured reports a missing service.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
