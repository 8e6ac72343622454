package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"jourdash/internal/apierror"
	"jourdash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = newValidator()

// newValidator reports fields by their JSON (or form) name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode(apierror.CodeBadRequest, "invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindOptionalJSON is bindAndValidate for endpoints whose body may be empty.
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return validateStruct(c, req)
	}
	return bindAndValidate(c, req)
}

func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode(apierror.CodeBadRequest, err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.WithCode(apierror.CodeBadRequest, err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// parseID reads a UUID path parameter, answering 400 when it is malformed.
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode(apierror.CodeBadRequest, "invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps service errors onto the HTTP envelope. Unknown errors are
// attached to the context for ErrorHandler to log and answered with a 500.
func writeError(c *gin.Context, err error) {
	var (
		verr     *service.ValidationError
		conflict *service.StateConflictError
		dupSKU   *service.DuplicateSKUError
		confirm  *service.ConfirmationRequiredError
		dupCode  *service.DuplicateCodeError
		integ    *service.IntegrationError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(verr.Fields))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.WithCode(apierror.CodeNotFound, err.Error()))
	case errors.As(err, &conflict):
		code := apierror.CodeStateConflict
		if errors.Is(err, service.ErrReceiptLocked) {
			code = apierror.CodeReceiptLocked
		}
		c.JSON(http.StatusConflict, &apierror.APIError{
			Detail: err.Error(),
			Code:   code,
			Data:   gin.H{"entity": conflict.Entity, "field": conflict.Field, "status": conflict.Status},
		})
	case errors.As(err, &dupSKU):
		c.JSON(http.StatusConflict, &apierror.APIError{
			Detail: err.Error(),
			Code:   apierror.CodeDuplicateSKU,
			Data:   gin.H{"line_id": dupSKU.LineID, "sku_code": dupSKU.SKUCode, "expected_qty": dupSKU.ExpectedQty},
		})
	case errors.As(err, &confirm):
		c.JSON(http.StatusConflict, &apierror.APIError{
			Detail: err.Error(),
			Code:   apierror.CodeConfirmationRequired,
			Data:   confirm.Summary,
		})
	case errors.Is(err, service.ErrVersionConflict):
		c.JSON(http.StatusConflict, apierror.WithCode(apierror.CodeVersionConflict, err.Error()))
	case errors.As(err, &dupCode):
		c.JSON(http.StatusConflict, apierror.WithCode(apierror.CodeDuplicateCode, err.Error()))
	case errors.Is(err, service.ErrBarcodeCollision):
		c.JSON(http.StatusConflict, apierror.WithCode(apierror.CodeBarcodeCollision, "barcode allocation failed, nothing was saved; retry the request"))
	case errors.Is(err, service.ErrBusy):
		c.JSON(http.StatusConflict, apierror.WithCode(apierror.CodeBusy, "receipt is being modified by another request, retry shortly"))
	case errors.As(err, &integ):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, apierror.WithCode(apierror.CodeUnavailable, integ.Dependency+" is temporarily unavailable, try again later"))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.WithCode(apierror.CodeInternal, "internal server error"))
	}
}
