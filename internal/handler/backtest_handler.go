package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/service"
	"github.com/Frankie813/smart-stock-trader/internal/utils"
)

// BacktestHandler handles backtest result HTTP requests
type BacktestHandler struct {
	backtestService *service.BacktestService
	logger          *zap.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(backtestService *service.BacktestService, logger *zap.Logger) *BacktestHandler {
	return &BacktestHandler{
		backtestService: backtestService,
		logger:          logger,
	}
}

// GetBacktestResult handles retrieving a stored per-stock result with
// its trades
// GET /api/v1/backtests/:id
func (h *BacktestHandler) GetBacktestResult(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid backtest result ID")
		return
	}

	result, err := h.backtestService.GetResult(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get backtest result", zap.Error(err), zap.Int("id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve backtest result")
		return
	}

	if result == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Backtest result not found")
		return
	}

	c.JSON(http.StatusOK, result)
}
