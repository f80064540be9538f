package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrTooLarge, http.StatusBadRequest},
		{domain.ErrUnsupportedType, http.StatusBadRequest},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrNoRelevantInformation, http.StatusNotFound},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{fmt.Errorf("pdf: %w", domain.ErrExtractionFailed), http.StatusUnprocessableEntity},
		{domain.ErrEmbeddingUnavailable, http.StatusBadGateway},
		{domain.ErrRateLimited, http.StatusBadGateway},
		{domain.ErrInvalidChunkConfig, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
