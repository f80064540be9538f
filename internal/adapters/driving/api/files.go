package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
	"github.com/custodia-labs/embediq/internal/logger"
)

// fileInfo describes one stored document.
type fileInfo struct {
	ID                  string    `json:"id"`
	Filename            string    `json:"filename"`
	Size                int64     `json:"size"`
	MIMEType            string    `json:"mimetype"`
	ExtractedTextLength int       `json:"extractedTextLength"`
	ChunkCount          int       `json:"chunkCount"`
	UploadDate          time.Time `json:"uploadDate"`
}

// failedFile reports an upload that could not be ingested.
type failedFile struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type uploadResponse struct {
	Message string       `json:"message"`
	Files   []fileInfo   `json:"files"`
	Failed  []failedFile `json:"failed,omitempty"`
}

// uploadFiles handles POST /api/files/upload.
func (s *Server) uploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "No files were uploaded", err)
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		abortWithError(c, http.StatusBadRequest, "No files were uploaded", nil)
		return
	}
	if len(headers) > s.limits.MaxFiles {
		abortWithError(c, http.StatusBadRequest,
			fmt.Sprintf("At most %d files can be uploaded at once", s.limits.MaxFiles), nil)
		return
	}

	uploads := make([]domain.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > s.limits.MaxFileSize {
			abortWithError(c, http.StatusBadRequest,
				"File too large: "+fh.Filename,
				fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrTooLarge, fh.Size, s.limits.MaxFileSize))
			return
		}
		upload, err := readUpload(fh)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Failed to read file: "+fh.Filename, err)
			return
		}
		uploads = append(uploads, upload)
	}

	results, err := s.services.Ingest.IngestBatch(c.Request.Context(), uploads)
	if err != nil {
		abortWithError(c, statusFor(err), "File upload failed", err)
		return
	}

	resp := uploadResponse{Files: []fileInfo{}}
	var firstErr error
	var firstName string
	for _, r := range results {
		if r.Err != nil {
			if firstErr == nil {
				firstErr, firstName = r.Err, r.Filename
			}
			resp.Failed = append(resp.Failed, failedFile{Filename: r.Filename, Error: r.Err.Error()})
			continue
		}
		resp.Files = append(resp.Files, documentInfo(r.Document))
	}

	if len(resp.Files) == 0 {
		abortWithError(c, statusFor(firstErr), "Failed to process file: "+firstName, firstErr)
		return
	}

	resp.Message = fmt.Sprintf("%d file(s) uploaded successfully", len(resp.Files))
	c.JSON(http.StatusOK, resp)
}

// listFiles handles GET /api/files.
func (s *Server) listFiles(c *gin.Context) {
	docs, err := s.services.Document.List(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve files", err)
		return
	}

	files := make([]fileInfo, len(docs))
	for i, d := range docs {
		files[i] = summaryInfo(d)
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// deleteFile handles DELETE /api/files/:fileId.
func (s *Server) deleteFile(c *gin.Context) {
	id := c.Param("fileId")

	err := s.services.Document.Delete(c.Request.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		abortWithError(c, http.StatusNotFound, "File not found", nil)
		return
	}
	if err != nil {
		abortWithError(c, statusFor(err), "Failed to delete file", err)
		return
	}

	logger.Info("Deleted %s", id)
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

func readUpload(fh *multipart.FileHeader) (domain.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.Upload{}, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return domain.Upload{}, err
	}
	return domain.Upload{
		Filename: fh.Filename,
		MIMEType: fh.Header.Get("Content-Type"),
		Content:  content,
	}, nil
}

func documentInfo(d *domain.Document) fileInfo {
	return fileInfo{
		ID:                  d.ID,
		Filename:            d.Filename,
		Size:                d.Size,
		MIMEType:            d.MIMEType,
		ExtractedTextLength: len(d.Content),
		ChunkCount:          len(d.Chunks),
		UploadDate:          d.CreatedAt,
	}
}

func summaryInfo(d driving.DocumentSummary) fileInfo {
	return fileInfo{
		ID:                  d.ID,
		Filename:            d.Filename,
		Size:                d.Size,
		MIMEType:            d.MIMEType,
		ExtractedTextLength: d.TextLength,
		ChunkCount:          d.ChunkCount,
		UploadDate:          d.UploadedAt,
	}
}
