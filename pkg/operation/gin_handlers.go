// Package operation exposes the scheduler contract over HTTP using Gin.
package operation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/efortin/cronjob-scheduler/pkg/scheduler"
)

// Error types returned in the error body
const (
	errTypeInvalidRequest   = "invalid_request"
	errTypeAlreadyExists    = "already_exists"
	errTypeNotFound         = "not_found"
	errTypeScheduleFailed   = "schedule_failed"
	errTypeUnscheduleFailed = "unschedule_failed"
	errTypeListFailed       = "list_failed"
)

// CreateScheduleRequest is the body of POST /schedules
type CreateScheduleRequest struct {
	ScheduleName         string            `json:"scheduleName" binding:"required"`
	TaskDefinitionName   string            `json:"taskDefinitionName" binding:"required"`
	Image                string            `json:"image" binding:"required"`
	CronExpression       string            `json:"cronExpression,omitempty"`
	Properties           map[string]string `json:"properties,omitempty"`
	DefinitionProperties map[string]string `json:"definitionProperties,omitempty"`
	Args                 []string          `json:"args,omitempty"`
}

// ToScheduleRequest converts the body into a scheduler request.
// A top-level cronExpression overrides the one found in properties.
func (r CreateScheduleRequest) ToScheduleRequest() (scheduler.ScheduleRequest, error) {
	resource, err := scheduler.ParseResource(r.Image)
	if err != nil {
		return scheduler.ScheduleRequest{}, err
	}

	props := make(map[string]string, len(r.Properties)+1)
	for k, v := range r.Properties {
		props[k] = v
	}
	if r.CronExpression != "" {
		props[scheduler.CronExpressionKey] = r.CronExpression
	}

	return scheduler.ScheduleRequest{
		Definition: scheduler.AppDefinition{
			Name:       r.TaskDefinitionName,
			Properties: r.DefinitionProperties,
		},
		ScheduleName:        r.ScheduleName,
		SchedulerProperties: props,
		CommandLineArgs:     r.Args,
		Resource:            resource,
	}, nil
}

// GinHandler serves schedule operations using Gin
type GinHandler struct {
	scheduler scheduler.Scheduler
	logger    zerolog.Logger
}

// NewGinHandler creates a new Gin schedule handler
func NewGinHandler(s scheduler.Scheduler, logger zerolog.Logger) *GinHandler {
	return &GinHandler{
		scheduler: s,
		logger:    logger,
	}
}

// CreateHandler handles POST /schedules
func (h *GinHandler) CreateHandler(c *gin.Context) {
	var body CreateScheduleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, errTypeInvalidRequest, err)
		return
	}

	request, err := body.ToScheduleRequest()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, errTypeInvalidRequest, err)
		return
	}

	if err := h.scheduler.Schedule(c.Request.Context(), request); err != nil {
		status, errType := createErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("schedule", body.ScheduleName).Msg("failed to create schedule")
		}
		abortWithError(c, status, errType, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":       "success",
		"scheduleName": body.ScheduleName,
	})
}

// DeleteHandler handles DELETE /schedules/:name
func (h *GinHandler) DeleteHandler(c *gin.Context) {
	name := c.Param("name")

	if err := h.scheduler.Unschedule(c.Request.Context(), name); err != nil {
		if errors.Is(err, scheduler.ErrScheduleNotFound) {
			abortWithError(c, http.StatusNotFound, errTypeNotFound, err)
			return
		}
		h.logger.Error().Err(err).Str("schedule", name).Msg("failed to delete schedule")
		abortWithError(c, http.StatusInternalServerError, errTypeUnscheduleFailed, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListHandler handles GET /schedules, optionally filtered by ?taskDefinitionName=
func (h *GinHandler) ListHandler(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		infos []scheduler.ScheduleInfo
		err   error
	)
	if task, ok := c.GetQuery("taskDefinitionName"); ok {
		infos, err = h.scheduler.ListByTask(ctx, task)
	} else {
		infos, err = h.scheduler.List(ctx)
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list schedules")
		abortWithError(c, http.StatusInternalServerError, errTypeListFailed, err)
		return
	}
	if infos == nil {
		infos = []scheduler.ScheduleInfo{}
	}

	c.JSON(http.StatusOK, gin.H{
		"schedules": infos,
		"count":     len(infos),
	})
}

// HealthHandler handles GET /health
func (h *GinHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func createErrorStatus(err error) (int, string) {
	switch {
	case scheduler.IsInvalidRequest(err), apierrors.IsInvalid(err):
		return http.StatusBadRequest, errTypeInvalidRequest
	case apierrors.IsAlreadyExists(err):
		return http.StatusConflict, errTypeAlreadyExists
	default:
		return http.StatusInternalServerError, errTypeScheduleFailed
	}
}

func abortWithError(c *gin.Context, status int, errType string, err error) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"message": err.Error(),
			"type":    errType,
		},
	})
}
