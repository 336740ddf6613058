package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/model"
	"github.com/Frankie813/smart-stock-trader/internal/repository"
	"github.com/Frankie813/smart-stock-trader/internal/service"
	"github.com/Frankie813/smart-stock-trader/internal/utils"
)

// runTimeout bounds a single experiment run kicked off by the API.
const runTimeout = 2 * time.Hour

// ExperimentHandler handles experiment HTTP requests
type ExperimentHandler struct {
	experimentService *service.ExperimentService
	logger            *zap.Logger
}

// NewExperimentHandler creates a new experiment handler
func NewExperimentHandler(experimentService *service.ExperimentService, logger *zap.Logger) *ExperimentHandler {
	return &ExperimentHandler{
		experimentService: experimentService,
		logger:            logger,
	}
}

// CreateExperiment handles creating and launching an experiment. The
// response returns immediately with the pending experiment; progress is
// tracked via GetExperiment.
// POST /api/v1/experiments
func (h *ExperimentHandler) CreateExperiment(c *gin.Context) {
	var req model.ExperimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	exp, err := h.experimentService.Create(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to create experiment", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusBadRequest, "Failed to create experiment: "+err.Error())
		return
	}

	// Run detached from the request context so the experiment survives
	// the client disconnecting.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if err := h.experimentService.Run(ctx, exp.ID); err != nil {
			h.logger.Error("Experiment run finished with error",
				zap.Int("experiment_id", exp.ID),
				zap.Error(err))
		}
	}()

	c.JSON(http.StatusAccepted, exp)
}

// GetExperiment handles retrieving an experiment with its status,
// progress and results
// GET /api/v1/experiments/:id
func (h *ExperimentHandler) GetExperiment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid experiment ID")
		return
	}

	exp, err := h.experimentService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrExperimentNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Experiment not found")
			return
		}
		h.logger.Error("Failed to get experiment", zap.Error(err), zap.Int("id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve experiment")
		return
	}

	c.JSON(http.StatusOK, exp)
}

// ListExperiments handles listing experiments with pagination
// GET /api/v1/experiments
func (h *ExperimentHandler) ListExperiments(c *gin.Context) {
	params := utils.ParsePaginationParams(c, 20, 100)

	experiments, total, err := h.experimentService.List(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		h.logger.Error("Failed to list experiments", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve experiments")
		return
	}

	utils.SendPaginatedResponse(c, http.StatusOK, experiments, total, params.Page, params.Limit)
}
