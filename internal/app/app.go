// Package app wires EmbedIQ's adapters and services together.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/embediq/internal/adapters/driven/ai"
	"github.com/custodia-labs/embediq/internal/adapters/driven/config/file"
	"github.com/custodia-labs/embediq/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/embediq/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
	"github.com/custodia-labs/embediq/internal/core/services"
	"github.com/custodia-labs/embediq/internal/logger"
	"github.com/custodia-labs/embediq/internal/normalisers"
	"github.com/custodia-labs/embediq/internal/normalisers/docx"
	"github.com/custodia-labs/embediq/internal/normalisers/eml"
	"github.com/custodia-labs/embediq/internal/normalisers/html"
	"github.com/custodia-labs/embediq/internal/normalisers/markdown"
	"github.com/custodia-labs/embediq/internal/normalisers/pdf"
	"github.com/custodia-labs/embediq/internal/normalisers/plaintext"
	"github.com/custodia-labs/embediq/internal/postprocessors"
)

// Options controls how the application is assembled.
type Options struct {
	// ConfigPath is the TOML config file. Empty uses ~/.embediq/config.toml.
	ConfigPath string

	// PromptDir holds prompt overrides. Empty uses a "prompts" directory
	// next to the config file.
	PromptDir string

	// ValidateAI pings the providers before returning.
	ValidateAI bool

	// LookupEnv replaces os.LookupEnv. Used by tests.
	LookupEnv func(string) (string, bool)
}

// App holds the assembled services. Close releases provider clients and
// the history database.
type App struct {
	Settings  *services.SettingsService
	Config    domain.AppSettings
	Ingest    *services.IngestService
	Document  *services.DocumentService
	Chat      *services.ChatService
	Retriever *services.Retriever

	// Warnings lists non-fatal start-up problems, such as no generation provider.
	Warnings []string

	closers []func() error
}

// NewSettings opens the config store and returns a settings service over it.
// It does not contact any provider.
func NewSettings(opts Options) (*services.SettingsService, *file.ConfigStore, error) {
	store, err := file.NewConfigStore(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}
	svc := services.NewSettingsService(store, ai.NewConfigValidator())
	if opts.LookupEnv != nil {
		svc.WithEnv(opts.LookupEnv)
	}
	return svc, store, nil
}

// New loads settings and builds every service.
func New(ctx context.Context, opts Options) (*App, error) {
	logger.Section("Startup")

	settingsSvc, store, err := NewSettings(opts)
	if err != nil {
		return nil, err
	}
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := settingsSvc.Validate(); err != nil {
		return nil, err
	}
	logger.Info("Config: %s", store.Path())

	promptDir := opts.PromptDir
	if promptDir == "" {
		promptDir = filepath.Join(filepath.Dir(store.Path()), "prompts")
	}
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	pipeline, err := postprocessors.NewDefaultPipeline(settings.Chunker)
	if err != nil {
		return nil, err
	}

	aiResult, err := ai.Init(ctx, *settings, opts.ValidateAI)
	if err != nil {
		return nil, err
	}

	a := &App{
		Settings: settingsSvc,
		Config:   *settings,
		Warnings: aiResult.Warnings,
	}
	a.closers = append(a.closers, func() error {
		aiResult.Close()
		return nil
	})

	history, err := openHistory(settings.History)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, history.Close)

	index := memory.NewVectorIndex(memory.WithDimensions(aiResult.EmbeddingService.Dimensions()))
	docs := memory.NewDocumentStore(index)

	registry := NewNormaliserRegistry(lookupEnv(opts))

	a.Retriever = services.NewRetriever(aiResult.EmbeddingService, index, settings.Retrieval)
	a.Document = services.NewDocumentService(docs)
	a.Ingest = services.NewIngestService(docs, index, aiResult.EmbeddingService, pipeline, registry, *settings)
	a.Chat = services.NewChatService(a.Retriever, aiResult.LLMService, prompts, history, docs, *settings)

	logger.Debug("Chunking %d/%d, top %d of %d candidates",
		settings.Chunker.Size, settings.Chunker.Overlap, settings.Retrieval.TopK, settings.Retrieval.Candidates)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewNormaliserRegistry registers every built-in text extractor.
func NewNormaliserRegistry(lookup func(string) (string, bool)) *normalisers.Registry {
	licenseKey, _ := lookup(pdf.LicenseKeyEnv)
	return normalisers.NewRegistry(
		plaintext.New(),
		markdown.New(),
		html.New(),
		pdf.New(licenseKey),
		docx.New(),
		eml.New(),
	)
}

func openHistory(settings domain.HistorySettings) (driven.HistoryStore, error) {
	switch settings.Backend {
	case domain.HistoryBackendSQLite:
		db, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		logger.Info("History: sqlite (%s)", db.Path())
		return db.HistoryStore(), nil
	default:
		logger.Debug("History: memory")
		return memory.NewHistoryStore(), nil
	}
}

func lookupEnv(opts Options) func(string) (string, bool) {
	if opts.LookupEnv != nil {
		return opts.LookupEnv
	}
	return os.LookupEnv
}
