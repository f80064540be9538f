package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
)

var (
	askMode    string
	askFiles   []string
	askSession string
	askSources bool
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the loaded documents",
	Long: `Retrieves the passages most similar to the question and asks the
configured model to answer from them.

Modes:
  normal  - a direct answer
  eli5    - explained simply
  compare - contrasts the documents in scope (needs at least two)`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

var (
	retrieveK     int
	retrieveFiles []string
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Show the passages most similar to a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runRetrieve,
}

func init() {
	askCmd.Flags().StringVarP(&askMode, "mode", "m", "normal", "answer mode: normal, eli5 or compare")
	askCmd.Flags().StringSliceVarP(&askFiles, "files", "f", nil, "restrict to these document IDs or filenames")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session ID for history (default a new session)")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "print the passages the answer used")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the response as JSON")
	rootCmd.AddCommand(askCmd)

	retrieveCmd.Flags().IntVarP(&retrieveK, "k", "k", domain.DefaultTopK, "maximum number of passages")
	retrieveCmd.Flags().StringSliceVarP(&retrieveFiles, "files", "f", nil, "restrict to these document IDs or filenames")
	rootCmd.AddCommand(retrieveCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errNotConfigured("chat")
	}

	mode, err := domain.ParseMode(askMode)
	if err != nil {
		return fmt.Errorf("unknown mode %q: use normal, eli5 or compare", askMode)
	}
	scope, err := resolveScope(cmd, askFiles)
	if err != nil {
		return err
	}
	session := askSession
	if session == "" {
		session = uuid.NewString()
	}

	resp, err := chatService.Send(cmd.Context(), driving.ChatRequest{
		SessionID: session,
		Message:   args[0],
		Mode:      mode,
		Files:     scope,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputJSON(cmd, map[string]any{
			"session": session,
			"answer":  resp.Answer,
			"mode":    resp.Mode,
			"sources": passages(resp.Sources),
		})
	}

	if resp.Mode != mode {
		cmd.Println(color.YellowString("Compare mode needs at least two documents; answered in %s mode.", resp.Mode))
		cmd.Println()
	}
	cmd.Println(resp.Answer)
	if askSources {
		cmd.Println()
		printPassages(cmd, resp.Sources)
	}
	cmd.Println()
	cmd.Printf("Session: %s\n", session)
	return nil
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retriever == nil {
		return errNotConfigured("retrieval")
	}

	scope, err := resolveScope(cmd, retrieveFiles)
	if err != nil {
		return err
	}
	result, err := retriever.Retrieve(cmd.Context(), args[0], scope, retrieveK)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if result.IsEmpty() {
		cmd.Println("No results found.")
		return nil
	}
	printPassages(cmd, result.Chunks)
	return nil
}

// resolveScope maps filenames to document IDs. Values that are already IDs
// pass through. A name matching several uploads selects all of them.
func resolveScope(cmd *cobra.Command, names []string) ([]string, error) {
	if len(names) == 0 || documentService == nil {
		return names, nil
	}
	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var ids []string
	for _, name := range names {
		matched := false
		for _, d := range docs {
			if d.ID == name || d.Filename == name {
				ids = append(ids, d.ID)
				matched = true
			}
		}
		if !matched {
			ids = append(ids, name)
		}
	}
	return ids, nil
}

type passage struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

func passages(chunks []domain.ScoredChunk) []passage {
	out := make([]passage, len(chunks))
	for i, sc := range chunks {
		out[i] = passage{
			DocumentID: sc.Chunk.DocumentID,
			ChunkID:    sc.Chunk.ID,
			Score:      sc.Score,
			Content:    sc.Chunk.Content,
		}
	}
	return out
}

func printPassages(cmd *cobra.Command, chunks []domain.ScoredChunk) {
	cmd.Println(color.CyanString("Sources:"))
	for i, sc := range chunks {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, sc.Chunk.ID, sc.Score)
		cmd.Printf("      %s\n", snippet(sc.Chunk.Content, 160))
	}
}

func snippet(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
