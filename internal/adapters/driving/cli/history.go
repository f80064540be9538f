package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show chat history",
	Long: `Without arguments, lists the sessions that have history, most recent first.
With a session ID, prints that session's questions and answers.

History outlives the process only with the sqlite backend
(history.backend = "sqlite" or EMBEDIQ_HISTORY_PATH).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var historyJSON bool

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errNotConfigured("chat")
	}

	if len(args) == 0 {
		sessions, err := chatService.Sessions(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		if historyJSON {
			return outputJSON(cmd, sessions)
		}
		if len(sessions) == 0 {
			cmd.Println("No chat history.")
			return nil
		}
		cmd.Println("Sessions:")
		for _, id := range sessions {
			cmd.Printf("  %s\n", id)
		}
		return nil
	}

	records, err := chatService.History(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}
	if historyJSON {
		return outputJSON(cmd, records)
	}
	if len(records) == 0 {
		cmd.Printf("No history for session %s.\n", args[0])
		return nil
	}

	for _, r := range records {
		cmd.Printf("%s %s\n", color.GreenString("[%s] You:", r.Timestamp.Format("2006-01-02 15:04:05")), r.User)
		cmd.Printf("%s %s\n\n", color.CyanString("EmbedIQ (%s):", r.Mode), r.Bot)
	}
	return nil
}
