package devicelog

import (
	"net/http"

	"leadline_backend/platform/httpkit"
	"leadline_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// ResyncRequest is the device's call-log upload.
type ResyncRequest struct {
	Entries []CallLogEntry `json:"entries" validate:"required,min=1,max=1000"`
}

type Handler struct {
	enqueuer ResyncEnqueuer
	val      *validator.Validator
}

func NewHandler(enqueuer ResyncEnqueuer, val *validator.Validator) *Handler {
	return &Handler{enqueuer: enqueuer, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/call-log/resync", h.Resync)
}

// Resync accepts the upload and queues the reconciliation job. Patching runs
// in the background worker, so the device gets a 202 immediately.
func (h *Handler) Resync(c *gin.Context) {
	var req ResyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	deviceID := httpkit.GetDeviceID(c)
	payload := ResyncPayload{DeviceID: deviceID, Entries: req.Entries}
	if err := h.enqueuer.EnqueueResync(c.Request.Context(), payload); err != nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "resync queue unavailable", nil)
		return
	}

	httpkit.JSON(c, http.StatusAccepted, gin.H{"status": "queued", "entries": len(req.Entries)})
}
