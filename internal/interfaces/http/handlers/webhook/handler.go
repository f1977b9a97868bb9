// Package webhook receives event pushes from the access-control provider.
package webhook

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitdesk/accessgate/internal/application/integration/services"
	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	"github.com/fitdesk/accessgate/internal/shared/logger"
	"github.com/fitdesk/accessgate/internal/shared/utils"
)

const (
	SecretHeader = "X-Webhook-Secret"
	maxBodyBytes = 1 << 20
)

type CredentialGetter interface {
	GetByBranchID(ctx context.Context, branchID string) (*accesscontrol.Credential, error)
}

// EventQueue accepts pushed batches for asynchronous processing.
type EventQueue interface {
	Enqueue(branchID string, events []hikvision.RawEvent) error
}

type Handler struct {
	credentials CredentialGetter
	queue       EventQueue
	logger      logger.Interface
}

func NewHandler(credentials CredentialGetter, queue EventQueue, logger logger.Interface) *Handler {
	return &Handler{credentials: credentials, queue: queue, logger: logger}
}

// Receive handles POST /webhooks/hikvision/:branchId. The batch is queued and
// acknowledged with 202 before processing.
func (h *Handler) Receive(c *gin.Context) {
	branchID := c.Param("branchId")

	cred, err := h.credentials.GetByBranchID(c.Request.Context(), branchID)
	if err != nil {
		if errors.Is(err, accesscontrol.ErrCredentialNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Unknown branch")
			return
		}
		h.logger.Errorw("failed to load credential for webhook", "branch_id", branchID, "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error occurred")
		return
	}
	if !cred.IsActive() {
		utils.ErrorResponse(c, http.StatusConflict, "Integration is disabled for this branch")
		return
	}
	if cred.WebhookSecret() == "" {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Webhook is not configured for this branch")
		return
	}

	given := c.GetHeader(SecretHeader)
	if subtle.ConstantTimeCompare([]byte(given), []byte(cred.WebhookSecret())) != 1 {
		h.logger.Warnw("webhook rejected: bad secret", "branch_id", branchID, "client_ip", c.ClientIP())
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid webhook secret")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	var batch hikvision.WebhookBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid webhook payload")
		return
	}
	if len(batch.Events) == 0 {
		utils.AcceptedResponse(c, "No events", gin.H{"accepted": 0})
		return
	}

	if err := h.queue.Enqueue(branchID, batch.Events); err != nil {
		if errors.Is(err, services.ErrQueueFull) {
			h.logger.Warnw("webhook queue full, provider should retry", "branch_id", branchID, "events", len(batch.Events))
			c.Header("Retry-After", "5")
		}
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Event intake is busy")
		return
	}

	utils.AcceptedResponse(c, "Events accepted", gin.H{"accepted": len(batch.Events)})
}
