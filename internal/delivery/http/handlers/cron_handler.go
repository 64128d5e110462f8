package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	crondto "github.com/LavaJover/shvark-bleumipay-service/internal/delivery/http/dto/cron"
	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/jobs"
	"github.com/gin-gonic/gin"
)

type JobRunner interface {
	Run(ctx context.Context, id string) error
}

// CronHandler lets an external scheduler trigger one reconciliation job.
type CronHandler struct {
	Runner JobRunner
}

func NewCronHandler(runner JobRunner) *CronHandler {
	return &CronHandler{Runner: runner}
}

// Run handles GET /cron?id=<payment|order|retry>. The job runs within the
// request.
func (h *CronHandler) Run(c *gin.Context) {
	id := c.Query("id")
	started := time.Now()

	err := h.Runner.Run(c.Request.Context(), id)
	resp := crondto.RunResponse{
		Job:      id,
		Success:  err == nil,
		Duration: time.Since(started).String(),
	}
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, domain.ErrUnknownJob):
		c.String(http.StatusBadRequest, jobs.InvalidJobMessage)
	case errors.Is(err, domain.ErrJobLocked):
		resp.Error = err.Error()
		c.JSON(http.StatusConflict, resp)
	default:
		resp.Error = err.Error()
		c.JSON(http.StatusInternalServerError, resp)
	}
}
