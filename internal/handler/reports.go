package handler

import (
	"io"
	"net/http"

	"jourdash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// Get godoc
// @Summary      Reconciliation report status
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Receipt UUID"
// @Success      200 {object} dto.ReportResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/gr/{id}/report [get]
func (h *ReportsHandler) Get(c *gin.Context) {
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

// DownloadPDF godoc
// @Summary      Download the reconciliation PDF
// @Tags         reports
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id  path string true "Receipt UUID"
// @Success      200 {file} binary
// @Failure      409 {object} apierror.APIError
// @Router       /v1/gr/{id}/report/pdf [get]
func (h *ReportsHandler) DownloadPDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	rc, filename, err := h.svc.OpenPDF(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		log.Warn().Err(err).Str("receipt_id", id.String()).Msg("report pdf stream interrupted")
	}
}

// Export godoc
// @Summary      Export a receipt as XLSX
// @Description  One sheet of lines and one sheet of units.
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        id  path string true "Receipt UUID"
// @Success      200 {file} binary
// @Router       /v1/gr/{id}/export [get]
func (h *ReportsHandler) Export(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	f, filename, err := h.svc.Export(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Transfer-Encoding", "binary")
	if err := f.Write(c.Writer); err != nil {
		log.Warn().Err(err).Str("receipt_id", id.String()).Msg("export write failed")
	}
}
