package handler

import (
	"net/http"
	"strconv"

	"leadline_backend/internal/leads/service"
	"leadline_backend/internal/leads/transport"
	"leadline_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 50

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/by-phone/:phone", h.GetByPhone)
}

// GetByPhone serves the lead plus recent call history for the call screen.
func (h *Handler) GetByPhone(c *gin.Context) {
	phoneNumber := c.Param("phone")
	if phoneNumber == "" {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			httpkit.Error(c, http.StatusBadRequest, "invalid limit", nil)
			return
		}
		limit = parsed
	}

	lead, history, err := h.svc.GetByPhone(c.Request.Context(), phoneNumber, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromLead(lead, history))
}
