package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"voicenotes/internal/clock"
	"voicenotes/internal/config"
	"voicenotes/internal/db"
	"voicenotes/internal/ingest"
	"voicenotes/internal/logger"
	"voicenotes/internal/model"
	"voicenotes/internal/storage"
	apperrors "voicenotes/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handler struct {
	repo       db.Repository
	store      storage.Storage
	ingestor   *ingest.Service
	dispatcher ingest.Dispatcher
	clk        clock.Clock
	cfg        *config.Config
	log        zerolog.Logger
}

func NewHandler(
	repo db.Repository,
	store storage.Storage,
	dispatcher ingest.Dispatcher,
	clk clock.Clock,
	cfg *config.Config,
) *Handler {
	return &Handler{
		repo:       repo,
		store:      store,
		ingestor:   ingest.NewService(store, repo, dispatcher, clk),
		dispatcher: dispatcher,
		clk:        clk,
		cfg:        cfg,
		log:        logger.Get(),
	}
}

// Upload accepts a multipart audio blob, stores it, records it as PENDING
// and schedules transcription. The response returns as soon as the file
// and the row are committed.
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file field"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}

	rec, err := h.ingestor.Ingest(c.Request.Context(), data, ingest.Options{
		Date:         c.Query("date"),
		FilenameHint: fileHeader.Filename,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store recording"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     rec.ID,
		"path":   "/files/" + rec.FilePath,
		"status": rec.Status,
	})
}

// ListRecordings returns the recordings of one calendar day, newest
// first. An unparsable date is a client error, not an empty result.
func (h *Handler) ListRecordings(c *gin.Context) {
	day := h.clk.Now()
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, day.Location())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	recordings, err := h.repo.ListRecordingsByDate(c.Request.Context(), day)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list recordings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	responses := make([]model.RecordingResponse, 0, len(recordings))
	for _, rec := range recordings {
		responses = append(responses, model.RecordingResponse{
			ID:            rec.ID,
			Path:          "/files/" + rec.FilePath,
			Name:          rec.Filename,
			Status:        rec.Status,
			Transcription: rec.Transcription,
			GroupID:       rec.GroupID,
		})
	}

	c.JSON(http.StatusOK, responses)
}

// DeleteRecordingByPath deletes by the "/files/..." path the client got
// from a listing. The path must stay confined to the storage root before
// any lookup or filesystem operation happens.
func (h *Handler) DeleteRecordingByPath(c *gin.Context) {
	var req model.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if !strings.HasPrefix(req.Path, "/files/") || strings.Contains(req.Path, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid path"})
		return
	}
	relPath := strings.TrimPrefix(req.Path, "/files/")

	rec, err := h.repo.GetRecordingByPath(c.Request.Context(), relPath)
	if err != nil {
		if err == apperrors.ErrRecordingNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recording not found"})
			return
		}
		h.log.Error().Err(err).Str("path", relPath).Msg("Failed to resolve recording")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.deleteRecording(c, rec)
}

// DeleteRecording deletes by id with the same row-then-file semantics.
func (h *Handler) DeleteRecording(c *gin.Context) {
	rec, ok := h.lookupRecording(c)
	if !ok {
		return
	}
	h.deleteRecording(c, rec)
}

// deleteRecording removes the row first; the record store is the
// authoritative existence check. The file delete is best-effort and a
// failure is logged as an accepted inconsistency for the reconciler.
func (h *Handler) deleteRecording(c *gin.Context, rec *model.Recording) {
	deleted, err := h.repo.DeleteRecording(c.Request.Context(), rec.ID)
	if err != nil {
		h.log.Error().Err(err).Str("recording_id", rec.ID).Msg("Failed to delete recording row")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recording not found"})
		return
	}

	if removed, err := h.store.Delete(c.Request.Context(), rec.FilePath); err != nil {
		h.log.Error().Err(err).Str("file_path", rec.FilePath).Msg("Failed to delete file after row removal")
	} else if !removed {
		h.log.Warn().Str("file_path", rec.FilePath).Msg("No file found for deleted recording")
	}

	h.log.Info().Str("recording_id", rec.ID).Str("file_path", rec.FilePath).Msg("Recording deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Recording deleted"})
}

func (h *Handler) UpdateRecordingGroup(c *gin.Context) {
	var req model.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := h.repo.UpdateRecordingGroup(c.Request.Context(), c.Param("id"), req.GroupID)
	if err != nil {
		h.log.Error().Err(err).Str("recording_id", c.Param("id")).Msg("Failed to update group")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recording not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Group updated"})
}

// RetryTranscription re-dispatches a recording that never completed.
// Completed recordings are immutable; PENDING -> COMPLETED happens at
// most once.
func (h *Handler) RetryTranscription(c *gin.Context) {
	rec, ok := h.lookupRecording(c)
	if !ok {
		return
	}

	if rec.Status == model.StatusCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "Recording is already transcribed"})
		return
	}

	if _, err := h.repo.ResetTranscription(c.Request.Context(), rec.ID); err != nil {
		h.log.Error().Err(err).Str("recording_id", rec.ID).Msg("Failed to reset transcription state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	job := model.TranscriptionJob{RecordingID: rec.ID, FilePath: rec.FilePath}
	if err := h.dispatcher.Dispatch(c.Request.Context(), job); err != nil {
		h.log.Error().Err(err).Str("recording_id", rec.ID).Msg("Failed to dispatch transcription job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule transcription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transcription scheduled"})
}

func (h *Handler) lookupRecording(c *gin.Context) (*model.Recording, bool) {
	rec, err := h.repo.GetRecording(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == apperrors.ErrRecordingNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recording not found"})
			return nil, false
		}
		h.log.Error().Err(err).Str("recording_id", c.Param("id")).Msg("Failed to load recording")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return rec, true
}

func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.repo.ListGroups(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list groups")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if groups == nil {
		groups = []model.TaskGroup{}
	}
	c.JSON(http.StatusOK, groups)
}

func (h *Handler) CreateGroup(c *gin.Context) {
	var req model.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	group := &model.TaskGroup{
		Name:        req.Name,
		Description: req.Description,
		Ordering:    req.Ordering,
	}
	if err := h.repo.CreateGroup(c.Request.Context(), group); err != nil {
		h.log.Error().Err(err).Str("name", req.Name).Msg("Failed to create group")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h *Handler) DeleteGroup(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	deleted, err := h.repo.DeleteGroup(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("group_id", id).Msg("Failed to delete group")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Group deleted"})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
	})
}
