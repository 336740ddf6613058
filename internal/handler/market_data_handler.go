package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/client"
	"github.com/Frankie813/smart-stock-trader/internal/repository"
	"github.com/Frankie813/smart-stock-trader/internal/service"
	"github.com/Frankie813/smart-stock-trader/internal/utils"
)

// MarketDataHandler handles market data HTTP requests
type MarketDataHandler struct {
	marketDataService *service.MarketDataService
	logger            *zap.Logger
}

// NewMarketDataHandler creates a new market data handler
func NewMarketDataHandler(marketDataService *service.MarketDataService, logger *zap.Logger) *MarketDataHandler {
	return &MarketDataHandler{
		marketDataService: marketDataService,
		logger:            logger,
	}
}

// fetchPricesRequest is the payload for triggering a historical fetch
type fetchPricesRequest struct {
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

// FetchPrices handles downloading historical daily bars from the provider
// POST /api/v1/stocks/:id/prices/fetch
func (h *MarketDataHandler) FetchPrices(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid stock ID")
		return
	}

	var req fetchPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.marketDataService.FetchHistory(c.Request.Context(), id, req.StartDate, req.EndDate)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStockNotFound):
			utils.SendErrorResponse(c, http.StatusNotFound, "Stock not found")
		case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrForbidden):
			utils.SendErrorResponse(c, http.StatusBadGateway, "Market data provider rejected the request")
		case errors.Is(err, client.ErrSymbolUnknown):
			utils.SendErrorResponse(c, http.StatusUnprocessableEntity, "Provider has no data for this symbol")
		default:
			h.logger.Error("Failed to fetch prices", zap.Error(err), zap.Int("stock_id", id))
			utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to fetch prices")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPrices handles retrieving stored daily bars for a stock
// GET /api/v1/stocks/:id/prices
func (h *MarketDataHandler) GetPrices(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid stock ID")
		return
	}

	var startDate, endDate *time.Time
	if s := c.Query("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD")
			return
		}
		startDate = &t
	}
	if s := c.Query("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD")
			return
		}
		endDate = &t
	}

	bars, err := h.marketDataService.GetPrices(c.Request.Context(), id, startDate, endDate)
	if err != nil {
		if errors.Is(err, repository.ErrStockNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Stock not found")
			return
		}
		h.logger.Error("Failed to get prices", zap.Error(err), zap.Int("stock_id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve prices")
		return
	}

	c.JSON(http.StatusOK, bars)
}

// GetCoverage handles reporting stored price coverage for a stock
// GET /api/v1/stocks/:id/prices/coverage
func (h *MarketDataHandler) GetCoverage(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid stock ID")
		return
	}

	count, dataRange, err := h.marketDataService.GetCoverage(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get coverage", zap.Error(err), zap.Int("stock_id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve coverage")
		return
	}

	resp := gin.H{"bars": count}
	if dataRange != nil {
		resp["range"] = dataRange
	}
	c.JSON(http.StatusOK, resp)
}
