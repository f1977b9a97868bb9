package integration

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitdesk/accessgate/internal/application/integration/dto"
	apperrors "github.com/fitdesk/accessgate/internal/shared/errors"
	"github.com/fitdesk/accessgate/internal/shared/logger"
	"github.com/fitdesk/accessgate/internal/shared/utils"
)

// Handler serves the per-branch integration API.
type Handler struct {
	saveCredentialUC       SaveCredentialExecutor
	getCredentialUC        GetCredentialExecutor
	deactivateCredentialUC DeactivateCredentialExecutor
	testConnectionUC       TestConnectionExecutor
	syncDevicesUC          DeviceListExecutor
	getDevicesUC           DeviceListExecutor
	openDoorUC             OpenDoorExecutor
	grantAccessUC          GrantAccessExecutor
	revokeAccessUC         RevokeAccessExecutor
	listPrivilegesUC       ListPrivilegesExecutor
	polling                PollController
	logger                 logger.Interface
}

// UseCases groups the executors a Handler needs.
type UseCases struct {
	SaveCredential       SaveCredentialExecutor
	GetCredential        GetCredentialExecutor
	DeactivateCredential DeactivateCredentialExecutor
	TestConnection       TestConnectionExecutor
	SyncDevices          DeviceListExecutor
	GetDevices           DeviceListExecutor
	OpenDoor             OpenDoorExecutor
	GrantAccess          GrantAccessExecutor
	RevokeAccess         RevokeAccessExecutor
	ListPrivileges       ListPrivilegesExecutor
}

func NewHandler(uc UseCases, polling PollController, logger logger.Interface) *Handler {
	return &Handler{
		saveCredentialUC:       uc.SaveCredential,
		getCredentialUC:        uc.GetCredential,
		deactivateCredentialUC: uc.DeactivateCredential,
		testConnectionUC:       uc.TestConnection,
		syncDevicesUC:          uc.SyncDevices,
		getDevicesUC:           uc.GetDevices,
		openDoorUC:             uc.OpenDoor,
		grantAccessUC:          uc.GrantAccess,
		revokeAccessUC:         uc.RevokeAccess,
		listPrivilegesUC:       uc.ListPrivileges,
		polling:                polling,
		logger:                 logger,
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.Code >= http.StatusInternalServerError {
		h.logger.Errorw("integration request failed",
			"path", c.FullPath(),
			"branch_id", c.Param("branchId"),
			"error", err,
		)
	}
	utils.ErrorResponseWithError(c, appErr)
}

func bindJSON(c *gin.Context, target any) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("Invalid request body", err.Error()))
		return false
	}
	return true
}

// SaveCredential handles PUT /branches/:branchId/credential
func (h *Handler) SaveCredential(c *gin.Context) {
	var req dto.SaveCredentialRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.saveCredentialUC.Execute(c.Request.Context(), c.Param("branchId"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Credential saved", result)
}

// GetCredential handles GET /branches/:branchId/credential
func (h *Handler) GetCredential(c *gin.Context) {
	result, err := h.getCredentialUC.Execute(c.Request.Context(), c.Param("branchId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// DeactivateCredential handles DELETE /branches/:branchId/credential
func (h *Handler) DeactivateCredential(c *gin.Context) {
	if err := h.deactivateCredentialUC.Execute(c.Request.Context(), c.Param("branchId")); err != nil {
		h.fail(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Integration disabled", nil)
}

// TestConnection handles POST /branches/:branchId/test-connection.
// The probe outcome is always reported with 200; success is in the body.
func (h *Handler) TestConnection(c *gin.Context) {
	result := h.testConnectionUC.Execute(c.Request.Context(), c.Param("branchId"))
	utils.SuccessResponse(c, http.StatusOK, result.Message, result)
}

// SyncDevices handles POST /branches/:branchId/devices/sync
func (h *Handler) SyncDevices(c *gin.Context) {
	result, err := h.syncDevicesUC.Execute(c.Request.Context(), c.Param("branchId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Devices synced", result)
}

// GetDevices handles GET /branches/:branchId/devices
func (h *Handler) GetDevices(c *gin.Context) {
	result, err := h.getDevicesUC.Execute(c.Request.Context(), c.Param("branchId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// OpenDoor handles POST /branches/:branchId/doors/:doorId/open
func (h *Handler) OpenDoor(c *gin.Context) {
	if err := h.openDoorUC.Execute(c.Request.Context(), c.Param("branchId"), c.Param("doorId")); err != nil {
		h.fail(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Door opened", nil)
}

// GrantAccess handles POST /branches/:branchId/access/grant.
// Partial failures answer 207 with the granted privileges in data.
func (h *Handler) GrantAccess(c *gin.Context) {
	var req dto.GrantAccessRequest
	if !bindJSON(c, &req) {
		return
	}
	req.BranchID = c.Param("branchId")

	result, err := h.grantAccessUC.Execute(c.Request.Context(), req)
	if err != nil {
		if result != nil {
			utils.ErrorResponseWithData(c, toAppError(err), result)
			return
		}
		h.fail(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Access granted", result)
}

// RevokeAccess handles POST /branches/:branchId/access/revoke
func (h *Handler) RevokeAccess(c *gin.Context) {
	var req dto.RevokeAccessRequest
	if !bindJSON(c, &req) {
		return
	}
	req.BranchID = c.Param("branchId")

	result, err := h.revokeAccessUC.Execute(c.Request.Context(), req)
	if err != nil {
		if result != nil {
			utils.ErrorResponseWithData(c, toAppError(err), result)
			return
		}
		h.fail(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Access revoked", result)
}

// GetMemberAccess handles GET /branches/:branchId/access/:memberId
func (h *Handler) GetMemberAccess(c *gin.Context) {
	result, err := h.listPrivilegesUC.Execute(c.Request.Context(), c.Param("branchId"), c.Param("memberId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// StartPolling handles POST /branches/:branchId/polling/start
func (h *Handler) StartPolling(c *gin.Context) {
	branchID := c.Param("branchId")
	if err := h.polling.StartBranch(c.Request.Context(), branchID); err != nil {
		h.fail(c, err)
		return
	}
	h.respondStatus(c, branchID, "Polling started")
}

// StopPolling handles POST /branches/:branchId/polling/stop
func (h *Handler) StopPolling(c *gin.Context) {
	branchID := c.Param("branchId")
	h.polling.StopBranch(branchID)
	h.respondStatus(c, branchID, "Polling stopped")
}

// PollingStatus handles GET /branches/:branchId/polling/status
func (h *Handler) PollingStatus(c *gin.Context) {
	h.respondStatus(c, c.Param("branchId"), "")
}

func (h *Handler) respondStatus(c *gin.Context, branchID, message string) {
	status, _ := h.polling.Status(branchID)
	resp := dto.PollerStatusResponse{
		BranchID:       status.BranchID,
		Running:        status.Running,
		State:          string(status.State),
		LastOffset:     status.LastOffset,
		LastError:      status.LastError,
		EventsAccepted: status.EventsAccepted,
	}
	if !status.LastPollAt.IsZero() {
		at := status.LastPollAt
		resp.LastPollAt = &at
	}
	utils.SuccessResponse(c, http.StatusOK, message, resp)
}
