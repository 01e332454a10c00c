package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	. "todolists/internal/adapter/http/helper"
	"todolists/internal/core/domain"
	"todolists/internal/core/model/response"
	"todolists/internal/core/port"
	"todolists/pkg/config"
	"todolists/pkg/db/cursor"
	. "todolists/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	defaultJobPageSize = 20
	maxJobPageSize     = 100
)

type JobLister interface {
	List(ctx context.Context, limit int, beforeID int64) ([]domain.Job, bool, error)
	CountByState(ctx context.Context) (map[domain.JobState]int, error)
}

var _ JobLister = (port.JobRepository)(nil)

// JobHandler exposes the background job table for inspection.
type JobHandler struct {
	jobs   JobLister
	codec  *cursor.Codec
	Logger *config.LokiLogger
}

func NewJobHandler(jobs JobLister, codec *cursor.Codec, logger *config.LokiLogger) *JobHandler {
	return &JobHandler{
		jobs:   jobs,
		codec:  codec,
		Logger: logger,
	}
}

func (h *JobHandler) GetJobs(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.job.GetJobs",
		HandlerAttributes("GetJobs", c.Request.Method, c.FullPath()))
	defer span.End()

	limit, _ := strconv.Atoi(c.Query("limit"))

	if limit <= 0 {
		limit = defaultJobPageSize
	}

	if limit > maxJobPageSize {
		limit = maxJobPageSize
	}

	var beforeID int64

	if token := c.Query("cursor"); token != "" {
		_, id, err := h.codec.Decode(token)

		if err != nil {
			SendBadRequestError(c, "cursor", err.Error())
			return
		}

		beforeID = id
	}

	span.SetAttributes(
		attribute.Int("pagination.limit", limit),
		attribute.Int64("pagination.before_id", beforeID),
	)

	jobs, hasNext, err := h.jobs.List(ctx, limit, beforeID)

	if err != nil {
		AddSpanError(span, err)
		h.Logger.Logger.Ctx(ctx).Error("Failed to list jobs", zap.Error(err))

		SendInternalError(c, "Error listing jobs")
		return
	}

	data := make([]response.JobResponse, 0, len(jobs))
	for _, job := range jobs {
		data = append(data, toJobResponse(job))
	}

	raw, err := json.Marshal(data)

	if err != nil {
		SendInternalError(c, "Error encoding jobs")
		return
	}

	page := response.CursorResponse{
		Size: len(data),
		Data: raw,
	}

	page.Pagination.HasNext = hasNext

	if hasNext {
		last := jobs[len(jobs)-1]
		page.Pagination.NextCursor = h.codec.Encode(last.CreatedAt.Format(time.RFC3339), last.ID)
	}

	c.JSON(http.StatusOK, page)
}

func (h *JobHandler) GetJobStats(c *gin.Context) {
	counts, err := h.jobs.CountByState(c.Request.Context())

	if err != nil {
		SendInternalError(c, "Error counting jobs")
		return
	}

	data := make(map[string]int, len(counts))
	for state, count := range counts {
		data[string(state)] = count
	}

	SendSuccess(c, http.StatusOK, data)
}
