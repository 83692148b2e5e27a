package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chemviz/app"
	"chemviz/domain/core"
	"chemviz/internal/errors"
	"chemviz/internal/report"
)

// handleRegister creates an account and returns its token
func (s *Server) handleRegister(c *gin.Context) {
	var req app.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format."})
		return
	}

	result, err := s.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// handleLogin exchanges credentials for the user's token
func (s *Server) handleLogin(c *gin.Context) {
	var req app.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format."})
		return
	}

	result, err := s.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleUpload ingests a multipart CSV upload sent as field "file"
func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("File exceeds the %s upload limit.", formatByteLimit(s.maxUploadBytes)),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided."})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(header.Filename, ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only .csv files are allowed."})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, errors.InvalidFormat("Failed to read uploaded file.", err))
		return
	}

	ds, err := s.equipment.Ingest(c.Request.Context(), currentUser(c).ID, header.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ds)
}

// handleHistory lists the caller's retained datasets, newest first
func (s *Server) handleHistory(c *gin.Context) {
	summaries, err := s.equipment.ListRecent(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// handleGetDataset returns one dataset with its records
func (s *Server) handleGetDataset(c *gin.Context) {
	id, ok := datasetParam(c)
	if !ok {
		return
	}

	ds, err := s.equipment.GetDataset(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

// handleDeleteDataset removes one dataset and its records
func (s *Server) handleDeleteDataset(c *gin.Context) {
	id, ok := datasetParam(c)
	if !ok {
		return
	}

	if err := s.equipment.DeleteDataset(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dataset deleted successfully."})
}

// handleReport renders a dataset report as an attachment; ?format=xlsx|html|txt
func (s *Server) handleReport(c *gin.Context) {
	id, ok := datasetParam(c)
	if !ok {
		return
	}

	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	doc, err := s.equipment.RenderReport(c.Request.Context(), currentUser(c).ID, id, format)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

// formatByteLimit renders a size limit in the largest unit that keeps it readable
func formatByteLimit(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

// datasetParam parses :id; malformed IDs cannot name a stored dataset and answer 404
func datasetParam(c *gin.Context) (core.DatasetID, bool) {
	id, err := core.ParseDatasetID(c.Param("id"))
	if err != nil {
		respondError(c, errors.NotFound("Dataset"))
		return "", false
	}
	return id, true
}
