package usecases

import (
	"context"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// OpenDoorUseCase sends a remote unlock to a door of the branch.
type OpenDoorUseCase struct {
	router     ProviderRouter
	deviceRepo accesscontrol.DeviceRepository
	logger     logger.Interface
}

func NewOpenDoorUseCase(router ProviderRouter, deviceRepo accesscontrol.DeviceRepository, logger logger.Interface) *OpenDoorUseCase {
	return &OpenDoorUseCase{router: router, deviceRepo: deviceRepo, logger: logger}
}

func (uc *OpenDoorUseCase) Execute(ctx context.Context, branchID, doorID string) error {
	door, err := resolveDoor(ctx, uc.deviceRepo, branchID, doorID)
	if err != nil {
		return err
	}

	client, err := uc.router.Resolve(ctx, branchID)
	if err != nil {
		return err
	}

	if err := client.RemoteOpenDoor(ctx, door.serialNo, door.doorNo); err != nil {
		uc.logger.Warnw("remote door open failed", "branch_id", branchID, "door_id", doorID, "error", err)
		return err
	}

	uc.logger.Infow("door opened remotely", "branch_id", branchID, "door_id", doorID)
	return nil
}
