package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"stockledger/internal/apierror"
	"stockledger/internal/dto"
	"stockledger/internal/middleware"
	"stockledger/internal/repository"
	"stockledger/internal/service"
)

const lookupCacheTTL = 5 * time.Minute

type StockHandler struct {
	svc       service.StockService
	adjustSvc service.AdjustmentService
	rdb       *redis.Client
}

func NewStockHandler(svc service.StockService, adjustSvc service.AdjustmentService, rdb *redis.Client) *StockHandler {
	return &StockHandler{svc: svc, adjustSvc: adjustSvc, rdb: rdb}
}

// Consume godoc
// @Summary      Consume stock
// @Description  Drains a quantity from a (product, warehouse) pair oldest-lot-first and returns the exact cost consumed. All-or-nothing: a shortfall leaves every lot untouched.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ConsumeStockRequest true "Consumption detail"
// @Success      200  {object} dto.ConsumeStockResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.StockError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/stock/consume [post]
func (h *StockHandler) Consume(c *gin.Context) {
	var req dto.ConsumeStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Consume(c.Request.Context(), userID, req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deduct godoc
// @Summary      Deduct stock directly
// @Description  Direct deduction for shrinkage, damage or manual correction. Validated against the stock level, then drained through the same FIFO walk as a sale.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.DeductStockRequest true "Deduction detail"
// @Success      200  {object} dto.ConsumeStockResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.StockError
// @Router       /v1/adjustments [post]
func (h *StockHandler) Deduct(c *gin.Context) {
	var req dto.DeductStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	resp, err := h.adjustSvc.Deduct(c.Request.Context(), userID, req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Levels godoc
// @Summary      List stock levels
// @Description  Per-(product, warehouse) on-hand quantities with blended average cost.
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        warehouse_id query string false "Warehouse UUID"
// @Param        below_min    query bool   false "Only rows at or under the product minimum"
// @Param        page         query int    false "Page (default 1)"
// @Param        limit        query int    false "Rows per page (default 100)"
// @Success      200 {object} dto.StockLevelListResponse
// @Router       /v1/stock-levels [get]
func (h *StockHandler) Levels(c *gin.Context) {
	filter := repository.StockLevelFilter{
		BelowMin: c.Query("below_min") == "true",
		Page:     intQuery(c, "page", 1),
		Limit:    intQuery(c, "limit", 100),
	}
	if raw := c.Query("warehouse_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid warehouse_id"))
			return
		}
		filter.WarehouseID = &id
	}

	resp, err := h.svc.Levels(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("could not list stock levels"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movements godoc
// @Summary      List stock movements
// @Description  Append-only audit trail of every stock change.
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        product_id   query string false "Product UUID"
// @Param        warehouse_id query string false "Warehouse UUID"
// @Param        type         query string false "receipt | sale | adjustment | void_restock"
// @Param        page         query int    false "Page (default 1)"
// @Param        limit        query int    false "Rows per page (default 100)"
// @Success      200 {object} dto.MovementListResponse
// @Router       /v1/movements [get]
func (h *StockHandler) Movements(c *gin.Context) {
	filter := repository.StockMovementFilter{
		Type:  c.Query("type"),
		Page:  intQuery(c, "page", 1),
		Limit: intQuery(c, "limit", 100),
	}
	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid product_id"))
			return
		}
		filter.ProductID = &id
	}
	if raw := c.Query("warehouse_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid warehouse_id"))
			return
		}
		filter.WarehouseID = &id
	}

	resp, err := h.svc.Movements(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("could not list movements"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Lookup godoc
// @Summary      Availability lookup by SKU
// @Description  Cheap availability answer backed by a short-lived Redis cache. No side effects.
// @Tags         stock
// @Produce      json
// @Param        sku path string true "Product SKU"
// @Success      200 {object} dto.StockLookupResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/stock/{sku} [get]
func (h *StockHandler) Lookup(c *gin.Context) {
	sku := c.Param("sku")
	ctx := c.Request.Context()
	cacheKey := "stock:" + sku

	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp dto.StockLookupResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	resp, err := h.svc.Lookup(ctx, sku)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	// Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, lookupCacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}
