package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/embediq/internal/connectors/filesystem"
	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
	"github.com/custodia-labs/embediq/internal/logger"
)

var ingestJSON bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Extract, chunk and embed files",
	Long: `Reads each file (directories are walked, hidden entries skipped), extracts
its text, splits it into chunks and embeds every chunk. Prints the resulting
document IDs and chunk counts.

Supported formats: plain text, Markdown, HTML, PDF, DOCX and EML.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(ingestCmd)
}

type ingestOutput struct {
	Filename string `json:"filename"`
	ID       string `json:"id,omitempty"`
	Chunks   int    `json:"chunks"`
	Error    string `json:"error,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	results, err := ingestPaths(cmd, args)
	if err != nil {
		return err
	}

	if ingestJSON {
		out := make([]ingestOutput, len(results))
		for i, r := range results {
			out[i] = ingestOutput{Filename: r.Filename}
			if r.Err != nil {
				out[i].Error = r.Err.Error()
				continue
			}
			out[i].ID = r.Document.ID
			out[i].Chunks = len(r.Document.Chunks)
		}
		return outputJSON(cmd, out)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			cmd.Printf("  %s %s: %v\n", color.RedString("✗"), r.Filename, r.Err)
			continue
		}
		cmd.Printf("  %s %s (%d chunks) -> %s\n",
			color.GreenString("✓"), r.Filename, len(r.Document.Chunks), r.Document.ID)
	}
	cmd.Printf("\nIngested %d of %d files.\n", len(results)-failed, len(results))
	return nil
}

// ingestPaths reads every file under paths and ingests them in batches,
// drawing a progress bar on stderr.
func ingestPaths(cmd *cobra.Command, paths []string) ([]driving.IngestResult, error) {
	if ingestService == nil {
		return nil, errNotConfigured("ingest")
	}

	limits := uploadLimits()
	uploads, err := collectUploads(cmd, paths, limits.MaxFileSize)
	if err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, fmt.Errorf("no readable files in %v", paths)
	}

	bar := newProgressBar(cmd, len(uploads), "Ingesting")
	results := make([]driving.IngestResult, 0, len(uploads))
	for start := 0; start < len(uploads); start += limits.MaxFiles {
		end := min(start+limits.MaxFiles, len(uploads))
		batch, err := ingestService.IngestBatch(cmd.Context(), uploads[start:end])
		if err != nil {
			return nil, fmt.Errorf("ingest failed: %w", err)
		}
		results = append(results, batch...)
		_ = bar.Add(len(batch))
	}
	_ = bar.Finish()

	logger.Info("Ingested %d files from %v", len(results), paths)
	return results, nil
}

// collectUploads expands paths into uploads. Unreadable files inside a
// directory are skipped; a missing top-level path is an error.
func collectUploads(cmd *cobra.Command, paths []string, maxSize int64) ([]domain.Upload, error) {
	var uploads []domain.Upload
	for _, p := range paths {
		found, err := filesystem.ReadUploads(cmd.Context(), p, maxSize)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, found...)
	}
	return uploads, nil
}

func uploadLimits() domain.UploadSettings {
	limits := domain.DefaultAppSettings().Upload
	if settingsService == nil {
		return limits
	}
	settings, err := settingsService.Get()
	if err != nil {
		return limits
	}
	if settings.Upload.MaxFiles > 0 {
		limits.MaxFiles = settings.Upload.MaxFiles
	}
	if settings.Upload.MaxFileSize > 0 {
		limits.MaxFileSize = settings.Upload.MaxFileSize
	}
	return limits
}

func newProgressBar(cmd *cobra.Command, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)
}
