package usecases

import (
	"context"

	"github.com/fitdesk/accessgate/internal/application/integration/dto"
	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	apperrors "github.com/fitdesk/accessgate/internal/shared/errors"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// GetDevicesUseCase reads the cached device registry without calling the provider.
type GetDevicesUseCase struct {
	deviceRepo accesscontrol.DeviceRepository
	logger     logger.Interface
}

func NewGetDevicesUseCase(deviceRepo accesscontrol.DeviceRepository, logger logger.Interface) *GetDevicesUseCase {
	return &GetDevicesUseCase{deviceRepo: deviceRepo, logger: logger}
}

func (uc *GetDevicesUseCase) Execute(ctx context.Context, branchID string) ([]dto.DeviceResponse, error) {
	devices, err := uc.deviceRepo.ListByBranch(ctx, branchID)
	if err != nil {
		uc.logger.Errorw("failed to list devices", "branch_id", branchID, "error", err)
		return nil, apperrors.NewInternalError("Failed to list devices")
	}
	return dto.ToDeviceResponses(devices), nil
}
