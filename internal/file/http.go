package file

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/abduss/filegate/internal/storage"
	"github.com/gin-gonic/gin"
)

const (
	formField = "file"

	// multipartOverhead is the slack allowed on top of the file size for
	// multipart boundaries and part headers.
	multipartOverhead = 1 << 20
)

// RegisterRoutes mounts the upload, list and delete endpoints.
func RegisterRoutes(router gin.IRouter, service *Service) {
	handler := &httpHandler{service: service}
	router.POST("/upload", handler.uploadFile)
	router.GET("/files", handler.listFiles)
	router.DELETE("/delete/:filename", handler.deleteFile)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) uploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.service.maxFileSize+multipartOverhead)

	fileHeader, err := c.FormFile(formField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(c, ErrFileTooLarge)
		case emptyFilePart(c):
			writeError(c, ErrEmptyFilename)
		default:
			writeError(c, ErrMissingFile)
		}
		return
	}

	result, err := h.service.Upload(c.Request.Context(), fileHeader)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"filename":     result.Key,
		"download_url": result.DownloadURL,
		"message":      "File uploaded successfully",
	})
}

func (h *httpHandler) listFiles(c *gin.Context) {
	entries, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": entries})
}

func (h *httpHandler) deleteFile(c *gin.Context) {
	key := c.Param("filename")

	if err := h.service.Delete(c.Request.Context(), key); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("File %s deleted successfully", key),
	})
}

// emptyFilePart reports whether the form carried a "file" field without a
// filename; mime/multipart files such parts as plain values.
func emptyFilePart(c *gin.Context) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value[formField]
	return ok
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var backend *storage.BackendError
	switch {
	case errors.Is(err, ErrMissingFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file part"})
	case errors.Is(err, ErrEmptyFilename):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No selected file"})
	case errors.Is(err, ErrExtensionNotAllowed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed"})
	case errors.Is(err, ErrEmptyKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No filename given"})
	case errors.Is(err, ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
	case errors.Is(err, storage.ErrCredentialsMissing):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage credentials not configured"})
	case errors.As(err, &backend):
		c.JSON(http.StatusInternalServerError, gin.H{"error": backend.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
