package handler

import (
	"net/http"

	"leadline_backend/internal/auth/service"
	"leadline_backend/internal/auth/transport"
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
	rg.POST("/device-token", h.IssueDeviceToken)
}

func (h *Handler) IssueDeviceToken(c *gin.Context) {
	var req transport.DeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	token, expiresAt, err := h.svc.IssueToken(req.DeviceID, req.DeviceSecret)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.DeviceTokenResponse{Token: token, ExpiresAt: expiresAt.Unix()})
}
