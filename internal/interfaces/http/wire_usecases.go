package http

import (
	"github.com/fitdesk/accessgate/internal/application/integration/usecases"
)

// allUseCases holds every use case exposed over HTTP or run by the scheduler.
type allUseCases struct {
	saveCredential       *usecases.SaveCredentialUseCase
	getCredential        *usecases.GetCredentialUseCase
	deactivateCredential *usecases.DeactivateCredentialUseCase
	testConnection       *usecases.TestConnectionUseCase
	syncDevices          *usecases.SyncDevicesUseCase
	getDevices           *usecases.GetDevicesUseCase
	openDoor             *usecases.OpenDoorUseCase
	grantAccess          *usecases.GrantAccessUseCase
	revokeAccess         *usecases.RevokeAccessUseCase
	listPrivileges       *usecases.ListPrivilegesUseCase
	syncAllDevicesJob    *usecases.SyncAllDevicesJob
}

func (c *Container) initUseCases() {
	r := c.repos
	log := c.log.Named("usecase")

	syncDevices := usecases.NewSyncDevicesUseCase(c.branchRouter, r.deviceRepo, c.cfg.Provider.DevicePageSize, c.clock, log)

	c.ucs = &allUseCases{
		saveCredential:       usecases.NewSaveCredentialUseCase(r.credentialRepo, c.branchRouter, c.supervisor, log),
		getCredential:        usecases.NewGetCredentialUseCase(r.credentialRepo, log),
		deactivateCredential: usecases.NewDeactivateCredentialUseCase(r.credentialRepo, c.branchRouter, c.supervisor, log),
		testConnection:       usecases.NewTestConnectionUseCase(r.credentialRepo, c.branchRouter, log),
		syncDevices:          syncDevices,
		getDevices:           usecases.NewGetDevicesUseCase(r.deviceRepo, log),
		openDoor:             usecases.NewOpenDoorUseCase(c.branchRouter, r.deviceRepo, log),
		grantAccess:          usecases.NewGrantAccessUseCase(c.branchRouter, r.deviceRepo, r.personRepo, r.privilegeRepo, log),
		revokeAccess:         usecases.NewRevokeAccessUseCase(c.branchRouter, r.personRepo, r.privilegeRepo, log),
		listPrivileges:       usecases.NewListPrivilegesUseCase(r.personRepo, r.privilegeRepo, log),
		syncAllDevicesJob:    usecases.NewSyncAllDevicesJob(r.credentialRepo, syncDevices, log),
	}
}
