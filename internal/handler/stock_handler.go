package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/model"
	"github.com/Frankie813/smart-stock-trader/internal/repository"
	"github.com/Frankie813/smart-stock-trader/internal/service"
	"github.com/Frankie813/smart-stock-trader/internal/utils"
)

// StockHandler handles stock HTTP requests
type StockHandler struct {
	stockService *service.StockService
	logger       *zap.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stockService *service.StockService, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		stockService: stockService,
		logger:       logger,
	}
}

// GetAllStocks handles retrieving all stocks
// GET /api/v1/stocks
func (h *StockHandler) GetAllStocks(c *gin.Context) {
	stocks, err := h.stockService.GetAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get all stocks", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve stocks")
		return
	}

	c.JSON(http.StatusOK, stocks)
}

// GetStock handles retrieving a stock by ID
// GET /api/v1/stocks/:id
func (h *StockHandler) GetStock(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid stock ID")
		return
	}

	stock, err := h.stockService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrStockNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Stock not found")
			return
		}
		h.logger.Error("Failed to get stock", zap.Error(err), zap.Int("id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve stock")
		return
	}

	c.JSON(http.StatusOK, stock)
}

// CreateStock handles registering a new stock
// POST /api/v1/stocks
func (h *StockHandler) CreateStock(c *gin.Context) {
	var req model.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	stock, err := h.stockService.Create(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to create stock", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to create stock: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, stock)
}

// UpdateStock handles updating an existing stock
// PUT /api/v1/stocks/:id
func (h *StockHandler) UpdateStock(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid stock ID")
		return
	}

	var req model.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	stock, err := h.stockService.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, repository.ErrStockNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Stock not found")
			return
		}
		h.logger.Error("Failed to update stock", zap.Error(err), zap.Int("id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to update stock")
		return
	}

	c.JSON(http.StatusOK, stock)
}

// DeactivateStock handles removing a stock from future experiments
// DELETE /api/v1/stocks/:id
func (h *StockHandler) DeactivateStock(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid stock ID")
		return
	}

	if err := h.stockService.Deactivate(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrStockNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Stock not found")
			return
		}
		h.logger.Error("Failed to deactivate stock", zap.Error(err), zap.Int("id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to deactivate stock")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Stock deactivated"})
}
