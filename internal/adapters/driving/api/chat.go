package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
	"github.com/custodia-labs/embediq/internal/logger"
)

// messageRequest is the body of POST /api/chat/message.
type messageRequest struct {
	Message   string   `json:"message"`
	SessionID string   `json:"sessionId"`
	Mode      string   `json:"mode"`
	Files     []string `json:"files"`
}

type historyItem struct {
	User      string    `json:"user"`
	Bot       string    `json:"bot"`
	Timestamp time.Time `json:"timestamp"`
	Mode      string    `json:"mode"`
}

type messageResponse struct {
	Response string        `json:"response"`
	Mode     string        `json:"mode"`
	History  []historyItem `json:"history"`
}

// sendMessage handles POST /api/chat/message.
func (s *Server) sendMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		abortWithError(c, http.StatusBadRequest, "Message is required", nil)
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid mode: "+req.Mode, err)
		return
	}

	resp, err := s.services.Chat.Send(c.Request.Context(), driving.ChatRequest{
		SessionID: req.SessionID,
		Message:   req.Message,
		Mode:      mode,
		Files:     req.Files,
	})
	switch {
	case errors.Is(err, domain.ErrNoDocumentsIndexed):
		abortWithError(c, http.StatusNotFound, "No documents have been uploaded yet", nil)
		return
	case errors.Is(err, domain.ErrNoRelevantInformation):
		abortWithError(c, http.StatusNotFound, "No relevant information found in the uploaded documents", nil)
		return
	case err != nil:
		logger.Error("Chat error: %v", err)
		abortWithError(c, statusFor(err), "Failed to generate response", err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{
		Response: resp.Answer,
		Mode:     string(resp.Mode),
		History:  historyItems(resp.History),
	})
}

// chatHistory handles GET /api/chat/history.
func (s *Server) chatHistory(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		abortWithError(c, http.StatusBadRequest, "Session ID is required", nil)
		return
	}

	records, err := s.services.Chat.History(c.Request.Context(), sessionID)
	if err != nil {
		abortWithError(c, statusFor(err), "Failed to retrieve chat history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": historyItems(records)})
}

func historyItems(records []domain.HistoryRecord) []historyItem {
	items := make([]historyItem, len(records))
	for i, r := range records {
		items[i] = historyItem{
			User:      r.User,
			Bot:       r.Bot,
			Timestamp: r.Timestamp,
			Mode:      string(r.Mode),
		}
	}
	return items
}
