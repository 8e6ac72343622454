package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"jourdash/internal/apierror"
	"jourdash/internal/dto"
	"jourdash/internal/reconcile"
	"jourdash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── writeError ────────────────────────────────────────────────────────────────

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", service.NewValidationError("barcode", "len=12,numeric"), http.StatusUnprocessableEntity, apierror.CodeValidation},
		{"not found", fmt.Errorf("get receipt: %w", service.ErrNotFound), http.StatusNotFound, apierror.CodeNotFound},
		{"state conflict", &service.StateConflictError{Entity: "receipt", Field: "lines", Status: "counting"}, http.StatusConflict, apierror.CodeStateConflict},
		{"locked", &service.StateConflictError{Entity: "receipt", Field: "lines", Status: "reconciled"}, http.StatusConflict, apierror.CodeReceiptLocked},
		{"duplicate sku", &service.DuplicateSKUError{LineID: "l-1", SKUCode: "JOW11123000102", ExpectedQty: 50}, http.StatusConflict, apierror.CodeDuplicateSKU},
		{"confirmation", &service.ConfirmationRequiredError{Summary: reconcile.Summary{TotalVariance: 2}}, http.StatusConflict, apierror.CodeConfirmationRequired},
		{"version", service.ErrVersionConflict, http.StatusConflict, apierror.CodeVersionConflict},
		{"duplicate code", &service.DuplicateCodeError{Registry: "model", Code: "230"}, http.StatusConflict, apierror.CodeDuplicateCode},
		{"barcode collision", fmt.Errorf("create units: %w", service.ErrBarcodeCollision), http.StatusConflict, apierror.CodeBarcodeCollision},
		{"busy", fmt.Errorf("%w: lock timeout", service.ErrBusy), http.StatusConflict, apierror.CodeBusy},
		{"integration", &service.IntegrationError{Dependency: "supplier directory", Err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable, apierror.CodeUnavailable},
		{"unknown", errors.New("pq: relation does not exist"), http.StatusInternalServerError, apierror.CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			writeError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body apierror.APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestWriteError_HidesInternals(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	writeError(c, &service.IntegrationError{Dependency: "supplier directory", Err: errors.New("password authentication failed")})

	assert.NotContains(t, w.Body.String(), "password")
	assert.Len(t, c.Errors, 1, "the cause is kept for the error log")
}

func TestWriteError_DuplicateSKUCarriesExistingLine(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	writeError(c, &service.DuplicateSKUError{LineID: "l-1", SKUCode: "JOW11123000102", ExpectedQty: 50})

	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "l-1", body.Data["line_id"])
	assert.EqualValues(t, 50, body.Data["expected_qty"])
}

// ── Receipt handler ───────────────────────────────────────────────────────────

// fakeReceipts implements only what the tests call; other methods panic.
type fakeReceipts struct {
	service.GoodsReceiptService
	addLine   func(req dto.AddLineRequest) (*dto.AddLineResponse, error)
	reconcile func(req dto.ReconcileRequest) (*dto.ReceiptDetailResponse, error)
	actor     string
}

func (f *fakeReceipts) AddLine(_ context.Context, actor string, _ uuid.UUID, req dto.AddLineRequest) (*dto.AddLineResponse, error) {
	f.actor = actor
	return f.addLine(req)
}

func (f *fakeReceipts) Reconcile(_ context.Context, actor string, _ uuid.UUID, req dto.ReconcileRequest) (*dto.ReceiptDetailResponse, error) {
	f.actor = actor
	return f.reconcile(req)
}

func receiptEngine(svc service.GoodsReceiptService) *gin.Engine {
	h := NewReceiptsHandler(svc)
	r := gin.New()
	r.POST("/gr/:id/lines", h.AddLine)
	r.POST("/gr/:id/reconcile", h.Reconcile)
	return r
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validLine() dto.AddLineRequest {
	return dto.AddLineRequest{
		Brand: "نایک", Gender: "زنانه", Season: "بهار", Category: "کیف", Subcategory: "کیف دستی",
		ModelCode: "230", ColorCode: "001", Size: "متوسط", ExpectedQty: 50,
	}
}

func TestAddLine_ValidationUsesJSONNames(t *testing.T) {
	fake := &fakeReceipts{}
	req := validLine()
	req.ExpectedQty = 0
	req.Brand = ""

	w := postJSON(receiptEngine(fake), "/gr/"+uuid.NewString()+"/lines", req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body apierror.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "required", body.Fields["brand"])
	assert.Equal(t, "required", body.Fields["expected_qty"])
}

func TestAddLine_InvalidID(t *testing.T) {
	w := postJSON(receiptEngine(&fakeReceipts{}), "/gr/not-a-uuid/lines", validLine())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddLine_CreatedVsMerged(t *testing.T) {
	merged := false
	fake := &fakeReceipts{addLine: func(req dto.AddLineRequest) (*dto.AddLineResponse, error) {
		return &dto.AddLineResponse{Merged: merged, UnitsGenerated: req.ExpectedQty}, nil
	}}
	r := receiptEngine(fake)

	w := postJSON(r, "/gr/"+uuid.NewString()+"/lines", validLine())
	assert.Equal(t, http.StatusCreated, w.Code)

	merged = true
	w = postJSON(r, "/gr/"+uuid.NewString()+"/lines", validLine())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReconcile_EmptyBodyMeansNoConfirm(t *testing.T) {
	var got dto.ReconcileRequest
	fake := &fakeReceipts{reconcile: func(req dto.ReconcileRequest) (*dto.ReceiptDetailResponse, error) {
		got = req
		return nil, &service.ConfirmationRequiredError{Summary: reconcile.Summary{TotalVariance: 2}}
	}}

	req := httptest.NewRequest(http.MethodPost, "/gr/"+uuid.NewString()+"/reconcile", nil)
	w := httptest.NewRecorder()
	receiptEngine(fake).ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, got.Confirm)
	assert.Contains(t, w.Body.String(), `"total_variance":2`)
	assert.Equal(t, "anonymous", fake.actor)
}
