package handler

import (
	"net/http"

	"jourdash/internal/dto"
	"jourdash/internal/middleware"
	"jourdash/internal/service"

	"github.com/gin-gonic/gin"
)

type UnitsHandler struct{ svc service.UnitService }

func NewUnitsHandler(svc service.UnitService) *UnitsHandler { return &UnitsHandler{svc: svc} }

// Get godoc
// @Summary      Get a unit
// @Tags         units
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Unit UUID"
// @Success      200 {object} dto.UnitResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/units/{id} [get]
func (h *UnitsHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History godoc
// @Summary      Unit audit trail
// @Tags         units
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Unit UUID"
// @Success      200 {array}  dto.ActivityResponse
// @Router       /v1/units/{id}/history [get]
func (h *UnitsHandler) History(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.History(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Scan godoc
// @Summary      Look up a unit by barcode
// @Tags         units
// @Produce      json
// @Security     BearerAuth
// @Param        barcode path     string true "12-digit barcode"
// @Success      200     {object} dto.UnitResponse
// @Failure      422     {object} apierror.APIError
// @Router       /v1/units/barcode/{barcode} [get]
func (h *UnitsHandler) Scan(c *gin.Context) {
	resp, err := h.svc.Scan(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordQC godoc
// @Summary      Record a QC result
// @Description  A failed check needs a reason code. Only after the receipt is reconciled.
// @Tags         units
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        barcode path     string        true "Barcode"
// @Param        body    body     dto.QCRequest true "QC result"
// @Success      200     {object} dto.UnitResponse
// @Failure      409     {object} apierror.APIError
// @Router       /v1/units/barcode/{barcode}/qc [post]
func (h *UnitsHandler) RecordQC(c *gin.Context) {
	var req dto.QCRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordQC(c.Request.Context(), middleware.Actor(c), c.Param("barcode"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Putaway godoc
// @Summary      Put a QC-passed unit away
// @Tags         units
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        barcode path     string             true "Barcode"
// @Param        body    body     dto.PutawayRequest true "Location"
// @Success      200     {object} dto.UnitResponse
// @Router       /v1/units/barcode/{barcode}/putaway [post]
func (h *UnitsHandler) Putaway(c *gin.Context) {
	var req dto.PutawayRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Putaway(c.Request.Context(), middleware.Actor(c), c.Param("barcode"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Store godoc
// @Summary      Assign a unit to its owner
// @Tags         units
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        barcode path     string           true "Barcode"
// @Param        body    body     dto.StoreRequest true "Owner and location"
// @Success      200     {object} dto.UnitResponse
// @Router       /v1/units/barcode/{barcode}/store [post]
func (h *UnitsHandler) Store(c *gin.Context) {
	var req dto.StoreRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Store(c.Request.Context(), middleware.Actor(c), c.Param("barcode"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
