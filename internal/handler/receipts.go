package handler

import (
	"net/http"

	"jourdash/internal/dto"
	"jourdash/internal/middleware"
	"jourdash/internal/service"

	"github.com/gin-gonic/gin"
)

type ReceiptsHandler struct{ svc service.GoodsReceiptService }

func NewReceiptsHandler(svc service.GoodsReceiptService) *ReceiptsHandler {
	return &ReceiptsHandler{svc: svc}
}

// Create godoc
// @Summary      Create a draft goods receipt
// @Description  Validates the supplier against the directory and assigns the next receipt number.
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.CreateReceiptRequest true "Receipt header"
// @Success      201  {object} dto.ReceiptDetailResponse
// @Failure      422  {object} apierror.APIError
// @Failure      503  {object} apierror.APIError
// @Router       /v1/gr [post]
func (h *ReceiptsHandler) Create(c *gin.Context) {
	var req dto.CreateReceiptRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List goods receipts
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        query     query string false "Receipt number, supplier or invoice number"
// @Param        status    query string false "draft | counting | reconciled"
// @Param        date_from query string false "YYYY-MM-DD"
// @Param        date_to   query string false "YYYY-MM-DD"
// @Param        page      query int    false "Page (default 1)"
// @Param        limit     query int    false "Page size (default 20)"
// @Success      200       {object} dto.ReceiptListResponse
// @Router       /v1/gr [get]
func (h *ReceiptsHandler) List(c *gin.Context) {
	var filter dto.ReceiptFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get a goods receipt
// @Description  Header, counts, allowed actions and the current reconciliation summary.
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Receipt UUID"
// @Success      200 {object} dto.ReceiptDetailResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/gr/{id} [get]
func (h *ReceiptsHandler) Get(c *gin.Context) {
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

// UpdateHeader godoc
// @Summary      Update receipt header
// @Description  Only allowed while the receipt is a draft.
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                   true "Receipt UUID"
// @Param        body body     dto.UpdateReceiptRequest true "Fields to change"
// @Success      200  {object} dto.ReceiptDetailResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/gr/{id} [put]
func (h *ReceiptsHandler) UpdateHeader(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateReceiptRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateHeader(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EnterCounting godoc
// @Summary      Move a draft into counting
// @Description  Freezes lines and units and seeds counted quantities from expected.
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Receipt UUID"
// @Success      200 {object} dto.ReceiptDetailResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/gr/{id}/enter-counting [post]
func (h *ReceiptsHandler) EnterCounting(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.EnterCounting(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reconcile godoc
// @Summary      Reconcile a counted receipt
// @Description  A receipt with variance needs confirm=true; the result is locked.
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string               true  "Receipt UUID"
// @Param        body body     dto.ReconcileRequest false "Confirmation"
// @Success      200  {object} dto.ReceiptDetailResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/gr/{id}/reconcile [post]
func (h *ReceiptsHandler) Reconcile(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ReconcileRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	resp, err := h.svc.Reconcile(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary godoc
// @Summary      Reconciliation summary
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Receipt UUID"
// @Success      200 {object} reconcile.Summary
// @Router       /v1/gr/{id}/summary [get]
func (h *ReceiptsHandler) Summary(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Summary(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Activity godoc
// @Summary      Receipt audit trail
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Receipt UUID"
// @Success      200 {array}  dto.ActivityResponse
// @Router       /v1/gr/{id}/activity [get]
func (h *ReceiptsHandler) Activity(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Activity(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
