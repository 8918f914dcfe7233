package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stockledger/internal/apierror"
	"stockledger/internal/dto"
	"stockledger/internal/service"
)

type WarehousesHandler struct{ svc service.CatalogService }

func NewWarehousesHandler(svc service.CatalogService) *WarehousesHandler {
	return &WarehousesHandler{svc: svc}
}

// Create godoc
// @Summary      Create warehouse
// @Tags         warehouses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateWarehouseRequest true "Warehouse detail"
// @Success      201  {object} dto.WarehouseResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/warehouses [post]
func (h *WarehousesHandler) Create(c *gin.Context) {
	var req dto.CreateWarehouseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateWarehouse(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List warehouses
// @Tags         warehouses
// @Produce      json
// @Security     BearerAuth
// @Param        include_inactive query bool false "Include deactivated warehouses"
// @Success      200 {array} dto.WarehouseResponse
// @Router       /v1/warehouses [get]
func (h *WarehousesHandler) List(c *gin.Context) {
	resp, err := h.svc.ListWarehouses(c.Request.Context(), c.Query("include_inactive") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("could not list warehouses"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate godoc
// @Summary      Deactivate warehouse
// @Tags         warehouses
// @Security     BearerAuth
// @Param        id path string true "Warehouse UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/warehouses/{id} [delete]
func (h *WarehousesHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	if err := h.svc.DeactivateWarehouse(c.Request.Context(), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
