package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/transcribe-bot/internal/api/dto"
	"github.com/cuongbtq/transcribe-bot/internal/history"
	"github.com/cuongbtq/transcribe-bot/internal/jobstatus"
	"github.com/gin-gonic/gin"
)

// Context keys set by the caller middleware
const (
	ContextUserID     = "caller_user_id"
	ContextPrivileged = "caller_privileged"
)

func caller(c *gin.Context) (string, bool) {
	return c.GetString(ContextUserID), c.GetBool(ContextPrivileged)
}

func toStatusDTO(snap jobstatus.Snapshot) dto.JobStatusDTO {
	return dto.JobStatusDTO{
		JobID:       snap.Identifier,
		OwnerID:     snap.Owner,
		GuildID:     snap.Guild,
		Language:    snap.Language,
		Status:      snap.Status.String(),
		Explanation: snap.Explanation,
		DeclaredAt:  snap.DeclaredAt.Format(time.RFC3339),
		LastUpdate:  snap.LastUpdate.Format(time.RFC3339),
	}
}

// GetJob handles GET /api/v1/jobs/:job_id
// Returns the cached status of an active job to its owner or an admin
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	userID, privileged := caller(c)

	if userID == "" && !privileged {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "X-User-ID header is required",
		})
		return
	}

	snap, err := h.status.Query(jobID, userID, privileged)
	switch {
	case errors.Is(err, jobstatus.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return
	case errors.Is(err, jobstatus.ErrForbidden):
		h.logger.Warn("Status query denied",
			slog.String("job_id", jobID),
			slog.String("user_id", userID),
		)
		c.JSON(http.StatusForbidden, gin.H{
			"error": "You are not allowed to view this job",
		})
		return
	case err != nil:
		h.logger.Error("Failed to query job status", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to query job status",
		})
		return
	}

	c.JSON(http.StatusOK, toStatusDTO(snap))
}

// ListJobs handles GET /api/v1/jobs
// Lists every active job; admins only
func (h *JobHandler) ListJobs(c *gin.Context) {
	if _, privileged := caller(c); !privileged {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Admin token required",
		})
		return
	}

	active := h.status.Active()
	jobs := make([]dto.JobStatusDTO, len(active))
	for i, snap := range active {
		jobs[i] = toStatusDTO(snap)
	}

	c.JSON(http.StatusOK, dto.ListActiveJobsResponse{
		Jobs:  jobs,
		Count: len(jobs),
	})
}

// ListHistory handles GET /api/v1/users/:user_id/history
// Lists a user's finished jobs, newest first, with cursor pagination
func (h *JobHandler) ListHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Job history is disabled",
		})
		return
	}

	ownerID := c.Param("user_id")
	userID, privileged := caller(c)
	if !privileged && userID != ownerID {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "You are not allowed to view this history",
		})
		return
	}

	var req dto.ListHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeHistoryCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	entries, err := h.history.ListByOwner(c.Request.Context(), history.Filter{
		OwnerID:  ownerID,
		Outcome:  req.Outcome,
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.logger.Error("Failed to list job history", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list job history",
		})
		return
	}

	hasMore := len(entries) > req.PageSize
	if hasMore {
		entries = entries[:req.PageSize]
	}

	resp := dto.ListHistoryResponse{Entries: make([]dto.HistoryEntryDTO, len(entries))}
	for i, e := range entries {
		resp.Entries[i] = dto.HistoryEntryDTO{
			JobID:       e.JobID,
			Language:    e.Language,
			FinalStatus: e.FinalStatus,
			Outcome:     e.Outcome,
			Detail:      e.Detail,
			DeclaredAt:  e.DeclaredAt.Format(time.RFC3339),
			FinishedAt:  e.FinishedAt.Format(time.RFC3339),
		}
	}

	if hasMore {
		last := entries[len(entries)-1]
		resp.NextCursor = EncodeHistoryCursor(&history.Cursor{
			FinishedAt: last.FinishedAt,
			JobID:      last.JobID,
		})
	}

	c.JSON(http.StatusOK, resp)
}
