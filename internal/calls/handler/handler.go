package handler

import (
	"net/http"

	"leadline_backend/internal/calls/service"
	"leadline_backend/internal/calls/transport"
	"leadline_backend/platform/httpkit"
	"leadline_backend/platform/validator"

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
	rg.POST("/call-events", h.UploadCallEvents)
	rg.POST("/screen-closed", h.ScreenClosed)
}

// UploadCallEvents accepts one batched device upload. The response is 200
// even when individual events are dropped: the device must not retry a
// delivery the server has claimed.
func (h *Handler) UploadCallEvents(c *gin.Context) {
	var req transport.EventBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.ProcessBatch(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

func (h *Handler) ScreenClosed(c *gin.Context) {
	var req transport.ScreenClosedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	h.svc.ScreenClosed(req.PhoneNumber)
	httpkit.OK(c, gin.H{"status": "ok"})
}
