package handler

import (
	"net/http"
	"time"

	"roofing_backend/internal/reports/service"
	"roofing_backend/internal/reports/transport"
	"roofing_backend/platform/httpkit"
	"roofing_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.Dashboard)
	rg.GET("/receivables/aging", h.ReceivablesAging)
}

func (h *Handler) Dashboard(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	resp, err := h.svc.Dashboard(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) ReceivablesAging(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	var query transport.AgingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	asOf := h.svc.Today()
	if query.AsOf != "" {
		parsed, err := time.Parse(transport.DateLayout, query.AsOf)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		asOf = parsed
	}

	resp, err := h.svc.ReceivablesAging(c.Request.Context(), tenantID, asOf)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}
