package handler

import (
	"net/http"

	"jourdash/internal/dto"
	"jourdash/internal/middleware"
	"jourdash/internal/service"

	"github.com/gin-gonic/gin"
)

type RegistryHandler struct{ svc service.RegistryService }

func NewRegistryHandler(svc service.RegistryService) *RegistryHandler {
	return &RegistryHandler{svc: svc}
}

// ListModels godoc
// @Summary      List product models
// @Tags         registry
// @Produce      json
// @Security     BearerAuth
// @Param        query query string false "Name or code"
// @Success      200   {array} dto.RegistryEntryResponse
// @Router       /v1/registry/models [get]
func (h *RegistryHandler) ListModels(c *gin.Context) {
	var f dto.RegistryFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.ListModels(c.Request.Context(), f.Query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateModel godoc
// @Summary      Register a product model
// @Tags         registry
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.CreateModelRequest true "Model"
// @Success      201  {object} dto.RegistryEntryResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/registry/models [post]
func (h *RegistryHandler) CreateModel(c *gin.Context) {
	var req dto.CreateModelRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateModel(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListColors godoc
// @Summary      List colors
// @Tags         registry
// @Produce      json
// @Security     BearerAuth
// @Param        query query string false "Name or code"
// @Success      200   {array} dto.RegistryEntryResponse
// @Router       /v1/registry/colors [get]
func (h *RegistryHandler) ListColors(c *gin.Context) {
	var f dto.RegistryFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.ListColors(c.Request.Context(), f.Query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateColor godoc
// @Summary      Register a color
// @Tags         registry
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.CreateColorRequest true "Color"
// @Success      201  {object} dto.RegistryEntryResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/registry/colors [post]
func (h *RegistryHandler) CreateColor(c *gin.Context) {
	var req dto.CreateColorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateColor(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AttributeValues godoc
// @Summary      Recognised SKU attribute values
// @Tags         registry
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.AttributeValuesResponse
// @Router       /v1/registry/attributes [get]
func (h *RegistryHandler) AttributeValues(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.AttributeValues())
}

// ListSuppliers godoc
// @Summary      Active suppliers
// @Tags         registry
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array}  dto.SupplierResponse
// @Failure      503 {object} apierror.APIError
// @Router       /v1/suppliers [get]
func (h *RegistryHandler) ListSuppliers(c *gin.Context) {
	resp, err := h.svc.ListSuppliers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
