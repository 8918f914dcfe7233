package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stockledger/internal/apierror"
	"stockledger/internal/dto"
	"stockledger/internal/middleware"
	"stockledger/internal/repository"
	"stockledger/internal/service"
)

type ReceiptsHandler struct{ svc service.ReceiptService }

func NewReceiptsHandler(svc service.ReceiptService) *ReceiptsHandler {
	return &ReceiptsHandler{svc: svc}
}

// Receive godoc
// @Summary      Receive stock
// @Description  Registers a goods receipt: creates a cost lot with its own unit cost and batch number, and folds the quantity into the stock level.
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ReceiveStockRequest true "Receipt detail"
// @Success      201  {object} dto.BatchResponse
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/receipts [post]
func (h *ReceiptsHandler) Receive(c *gin.Context) {
	var req dto.ReceiveStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Receive(c.Request.Context(), userID, req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetBatch godoc
// @Summary      Get a batch
// @Tags         batches
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Batch UUID"
// @Success      200 {object} dto.BatchResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/batches/{id} [get]
func (h *ReceiptsHandler) GetBatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.GetBatch(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListBatches godoc
// @Summary      List batches
// @Description  Paginated cost-lot listing, filterable by product, warehouse and depletion state.
// @Tags         batches
// @Produce      json
// @Security     BearerAuth
// @Param        product_id   query string false "Product UUID"
// @Param        warehouse_id query string false "Warehouse UUID"
// @Param        depleted     query string false "true | false"
// @Param        page         query int    false "Page (default 1)"
// @Param        limit        query int    false "Rows per page (default 100)"
// @Success      200 {object} dto.BatchListResponse
// @Router       /v1/batches [get]
func (h *ReceiptsHandler) ListBatches(c *gin.Context) {
	filter := repository.BatchFilter{
		Depleted: c.Query("depleted"),
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
	filter.Page = intQuery(c, "page", 1)
	filter.Limit = intQuery(c, "limit", 100)

	resp, err := h.svc.ListBatches(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("could not list batches"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
