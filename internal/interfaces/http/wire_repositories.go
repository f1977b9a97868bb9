package http

import (
	"gorm.io/gorm"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/repository"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// repositories holds all repository instances used by the application.
type repositories struct {
	credentialRepo accesscontrol.CredentialRepository
	deviceRepo     accesscontrol.DeviceRepository
	personRepo     accesscontrol.PersonRepository
	privilegeRepo  accesscontrol.PrivilegeRepository
	eventRepo      accesscontrol.EventRepository
}

// newRepositories creates all repository instances from the database connection.
func newRepositories(db *gorm.DB, log logger.Interface) *repositories {
	personRepo := repository.NewPersonRepository(db, log)
	return &repositories{
		credentialRepo: repository.NewCredentialRepository(db, log),
		deviceRepo:     repository.NewDeviceRepository(db, log),
		personRepo:     personRepo,
		privilegeRepo:  personRepo,
		eventRepo:      repository.NewEventRepository(db, log),
	}
}
