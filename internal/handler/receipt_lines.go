package handler

import (
	"net/http"

	"jourdash/internal/dto"
	"jourdash/internal/middleware"

	"github.com/gin-gonic/gin"
)

// ListLines godoc
// @Summary      List receipt lines
// @Tags         lines
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Receipt UUID"
// @Success      200 {array}  dto.LineResponse
// @Router       /v1/gr/{id}/lines [get]
func (h *ReceiptsHandler) ListLines(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListLines(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddLine godoc
// @Summary      Add a line and generate its units
// @Description  The SKU is derived from the attributes. An existing SKU answers 409 unless confirm_merge is set.
// @Tags         lines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string             true "Receipt UUID"
// @Param        body body     dto.AddLineRequest true "Line attributes"
// @Success      201  {object} dto.AddLineResponse
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/gr/{id}/lines [post]
func (h *ReceiptsHandler) AddLine(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddLineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddLine(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusCreated
	if resp.Merged {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// UpdateCounted godoc
// @Summary      Record the counted quantity of a line
// @Tags         lines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path     string                    true "Receipt UUID"
// @Param        lineId path     string                    true "Line UUID"
// @Param        body   body     dto.UpdateCountedRequest true "Counted quantity"
// @Success      200    {object} dto.LineResponse
// @Failure      409    {object} apierror.APIError
// @Router       /v1/gr/{id}/lines/{lineId}/counted-qty [put]
func (h *ReceiptsHandler) UpdateCounted(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	lineID, ok := parseID(c, "lineId")
	if !ok {
		return
	}
	var req dto.UpdateCountedRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateCounted(c.Request.Context(), middleware.Actor(c), id, lineID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteLine godoc
// @Summary      Delete a draft line and its units
// @Tags         lines
// @Security     BearerAuth
// @Param        id     path string true "Receipt UUID"
// @Param        lineId path string true "Line UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/gr/{id}/lines/{lineId} [delete]
func (h *ReceiptsHandler) DeleteLine(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	lineID, ok := parseID(c, "lineId")
	if !ok {
		return
	}
	if err := h.svc.DeleteLine(c.Request.Context(), middleware.Actor(c), id, lineID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GenerateUnits godoc
// @Summary      Append units to a draft line
// @Description  Raises the expected quantity by the same amount.
// @Tags         lines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path     string                   true "Receipt UUID"
// @Param        lineId path     string                   true "Line UUID"
// @Param        body   body     dto.GenerateUnitsRequest true "Quantity"
// @Success      201    {object} dto.GenerateUnitsResponse
// @Router       /v1/gr/{id}/lines/{lineId}/generate-units [post]
func (h *ReceiptsHandler) GenerateUnits(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	lineID, ok := parseID(c, "lineId")
	if !ok {
		return
	}
	var req dto.GenerateUnitsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.GenerateUnits(c.Request.Context(), middleware.Actor(c), id, lineID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListUnits godoc
// @Summary      List receipt units
// @Tags         units
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Receipt UUID"
// @Success      200 {array}  dto.UnitResponse
// @Router       /v1/gr/{id}/units [get]
func (h *ReceiptsHandler) ListUnits(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListUnits(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteUnit godoc
// @Summary      Delete a unit of a draft receipt
// @Description  Lowers the line's expected quantity by one.
// @Tags         units
// @Security     BearerAuth
// @Param        id  path string true "Unit UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/units/{id} [delete]
func (h *ReceiptsHandler) DeleteUnit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteUnit(c.Request.Context(), middleware.Actor(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
