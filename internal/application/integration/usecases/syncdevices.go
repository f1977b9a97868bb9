package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/fitdesk/accessgate/internal/application/integration/dto"
	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	"github.com/fitdesk/accessgate/internal/shared/biztime"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

const (
	defaultDevicePageSize = 100
	maxDevicePages        = 1000
)

// SyncDevicesUseCase mirrors the provider device listing of a branch into the
// local registry. The registry is only replaced after the full listing was read.
type SyncDevicesUseCase struct {
	router     ProviderRouter
	deviceRepo accesscontrol.DeviceRepository
	pageSize   int
	clock      biztime.Clock
	logger     logger.Interface
}

func NewSyncDevicesUseCase(
	router ProviderRouter,
	deviceRepo accesscontrol.DeviceRepository,
	pageSize int,
	clock biztime.Clock,
	logger logger.Interface,
) *SyncDevicesUseCase {
	if pageSize <= 0 {
		pageSize = defaultDevicePageSize
	}
	if clock == nil {
		clock = biztime.SystemClock()
	}
	return &SyncDevicesUseCase{
		router:     router,
		deviceRepo: deviceRepo,
		pageSize:   pageSize,
		clock:      clock,
		logger:     logger,
	}
}

func (uc *SyncDevicesUseCase) Execute(ctx context.Context, branchID string) ([]dto.DeviceResponse, error) {
	client, err := uc.router.Resolve(ctx, branchID)
	if err != nil {
		return nil, err
	}

	infos, err := uc.fetchAll(ctx, branchID, client)
	if err != nil {
		uc.logger.Warnw("device sync failed, keeping cached devices", "branch_id", branchID, "error", err)
		return nil, err
	}

	syncedAt := uc.clock.Now()
	devices := make([]*accesscontrol.Device, 0, len(infos))
	seen := make(map[string]bool, len(infos))
	for _, info := range infos {
		if seen[info.SerialNo] {
			continue
		}
		device, err := accesscontrol.NewSyncedDevice(
			branchID, info.SerialNo, info.Name, info.Category,
			info.Online(), info.IsCloudManaged, toDoors(info.Doors), syncedAt,
		)
		if err != nil {
			uc.logger.Warnw("provider device skipped", "branch_id", branchID, "name", info.Name, "error", err)
			continue
		}
		seen[info.SerialNo] = true
		devices = append(devices, device)
	}

	if err := uc.deviceRepo.ReplaceBranch(ctx, branchID, devices, syncedAt); err != nil {
		uc.logger.Errorw("failed to store synced devices", "branch_id", branchID, "error", err)
		return nil, fmt.Errorf("failed to store synced devices: %w", err)
	}

	stored, err := uc.deviceRepo.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	uc.logger.Infow("devices synced", "branch_id", branchID, "devices", len(devices), "cached", len(stored))
	return dto.ToDeviceResponses(stored), nil
}

func (uc *SyncDevicesUseCase) fetchAll(ctx context.Context, branchID string, client *hikvision.Client) ([]hikvision.DeviceInfo, error) {
	var all []hikvision.DeviceInfo
	total := 0

	for pageIndex := 1; pageIndex <= maxDevicePages; pageIndex++ {
		page, err := client.ListDevices(ctx, pageIndex, uc.pageSize)
		if err != nil {
			kind := accesscontrol.SyncPartialData
			if pageIndex == 1 {
				kind = accesscontrol.SyncProviderUnreachable
			}
			return nil, &accesscontrol.SyncError{Kind: kind, BranchID: branchID, Err: fmt.Errorf("page %d: %w", pageIndex, err)}
		}

		total = page.TotalCount
		all = append(all, page.Devices...)
		if len(page.Devices) == 0 || len(all) >= total {
			break
		}
	}

	if len(all) < total {
		return nil, &accesscontrol.SyncError{
			Kind:     accesscontrol.SyncPartialData,
			BranchID: branchID,
			Err:      fmt.Errorf("received %d of %d devices", len(all), total),
		}
	}
	return all, nil
}

func toDoors(infos []hikvision.DoorInfo) []accesscontrol.Door {
	doors := make([]accesscontrol.Door, 0, len(infos))
	for _, d := range infos {
		doors = append(doors, accesscontrol.Door{DoorNo: d.DoorNo, DoorName: d.DoorName, DoorStatus: d.DoorStatus})
	}
	return doors
}

// SyncAllDevicesJob syncs every active branch. It is run by the scheduler.
type SyncAllDevicesJob struct {
	credentialRepo accesscontrol.CredentialRepository
	sync           *SyncDevicesUseCase
	logger         logger.Interface
}

func NewSyncAllDevicesJob(credentialRepo accesscontrol.CredentialRepository, sync *SyncDevicesUseCase, logger logger.Interface) *SyncAllDevicesJob {
	return &SyncAllDevicesJob{credentialRepo: credentialRepo, sync: sync, logger: logger}
}

// Execute returns the number of branches synced. A failing branch does not stop the others.
func (j *SyncAllDevicesJob) Execute(ctx context.Context) (int, error) {
	creds, err := j.credentialRepo.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active credentials: %w", err)
	}

	synced := 0
	var errs []error
	for _, cred := range creds {
		if ctx.Err() != nil {
			break
		}
		if _, err := j.sync.Execute(ctx, cred.BranchID()); err != nil {
			errs = append(errs, fmt.Errorf("branch %s: %w", cred.BranchID(), err))
			continue
		}
		synced++
	}
	return synced, errors.Join(errs...)
}
