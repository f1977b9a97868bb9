package usecases

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fitdesk/accessgate/internal/application/integration/dto"
	"github.com/fitdesk/accessgate/internal/application/integration/services"
	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision/hikvisiontest"
	"github.com/fitdesk/accessgate/internal/infrastructure/persistence/models"
	"github.com/fitdesk/accessgate/internal/infrastructure/repository"
	"github.com/fitdesk/accessgate/internal/infrastructure/token"
	"github.com/fitdesk/accessgate/internal/shared/config"
	apperrors "github.com/fitdesk/accessgate/internal/shared/errors"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

const testBranch = "branch-1"

type mockStopper struct {
	mock.Mock
}

func (m *mockStopper) StopBranch(branchID string) {
	m.Called(branchID)
}

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fixture struct {
	provider *hikvisiontest.Provider
	creds    *repository.CredentialRepository
	devices  *repository.DeviceRepository
	persons  *repository.PersonRepository
	router   *services.BranchRouter
	stopper  *mockStopper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := testLogger()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	httpClient := hikvision.NewHTTPClient(5 * time.Second)
	tokens := token.NewManager(hikvision.NewAuthenticator(httpClient), config.ProviderConfig{
		TokenRetryAttempts: 2,
		TokenRetryBase:     time.Millisecond,
	}, log)

	f := &fixture{
		provider: hikvisiontest.New(t),
		creds:    repository.NewCredentialRepository(db, log),
		devices:  repository.NewDeviceRepository(db, log),
		persons:  repository.NewPersonRepository(db, log),
		stopper:  &mockStopper{},
	}
	f.router = services.NewBranchRouter(f.creds, tokens, httpClient, log)
	return f
}

func (f *fixture) saveCredential(t *testing.T, appSecret string, active bool) {
	t.Helper()
	cred, err := accesscontrol.NewCredential(testBranch, f.provider.URL(), hikvisiontest.AppKey, appSecret, "")
	require.NoError(t, err)
	if !active {
		cred.Deactivate()
	}
	require.NoError(t, f.creds.Save(context.Background(), cred))
}

func (f *fixture) syncUseCase() *SyncDevicesUseCase {
	return NewSyncDevicesUseCase(f.router, f.devices, 2, nil, testLogger())
}

func device(serial string, doors ...int) hikvision.DeviceInfo {
	info := hikvision.DeviceInfo{SerialNo: serial, Name: "Gate " + serial, Category: "accessControllerDevice", OnlineStatus: 1}
	for _, n := range doors {
		info.Doors = append(info.Doors, hikvision.DoorInfo{DoorNo: n, DoorName: "Door"})
	}
	return info
}

func boolPtr(b bool) *bool { return &b }

func TestSaveCredentialUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("creates then updates keeping the secret", func(t *testing.T) {
		f := newFixture(t)
		uc := NewSaveCredentialUseCase(f.creds, f.router, f.stopper, testLogger())

		resp, err := uc.Execute(ctx, testBranch, dto.SaveCredentialRequest{
			APIBaseURL: f.provider.URL(),
			AppKey:     "key-1",
			AppSecret:  "super-secret-value",
		})
		require.NoError(t, err)
		assert.True(t, resp.IsActive)
		assert.NotContains(t, resp.AppSecretMasked, "secret-value")

		resp, err = uc.Execute(ctx, testBranch, dto.SaveCredentialRequest{
			APIBaseURL: f.provider.URL(),
			AppKey:     "key-2",
		})
		require.NoError(t, err)
		assert.Equal(t, "key-2", resp.AppKey)

		stored, err := f.creds.GetByBranchID(ctx, testBranch)
		require.NoError(t, err)
		assert.Equal(t, "super-secret-value", stored.AppSecret())
	})

	t.Run("new credential without secret is rejected", func(t *testing.T) {
		f := newFixture(t)
		uc := NewSaveCredentialUseCase(f.creds, f.router, f.stopper, testLogger())

		_, err := uc.Execute(ctx, testBranch, dto.SaveCredentialRequest{APIBaseURL: f.provider.URL(), AppKey: "key"})
		assert.True(t, apperrors.IsValidationError(err))
	})

	t.Run("invalid url is rejected", func(t *testing.T) {
		f := newFixture(t)
		uc := NewSaveCredentialUseCase(f.creds, f.router, f.stopper, testLogger())

		_, err := uc.Execute(ctx, testBranch, dto.SaveCredentialRequest{APIBaseURL: "not a url", AppKey: "key", AppSecret: "s"})
		assert.True(t, apperrors.IsValidationError(err))
	})

	t.Run("deactivating stops polling", func(t *testing.T) {
		f := newFixture(t)
		f.stopper.On("StopBranch", testBranch).Return().Once()
		uc := NewSaveCredentialUseCase(f.creds, f.router, f.stopper, testLogger())

		resp, err := uc.Execute(ctx, testBranch, dto.SaveCredentialRequest{
			APIBaseURL: f.provider.URL(),
			AppKey:     "key",
			AppSecret:  "secret",
			IsActive:   boolPtr(false),
		})
		require.NoError(t, err)
		assert.False(t, resp.IsActive)
		f.stopper.AssertExpectations(t)
	})
}

func TestGetAndDeactivateCredentialUseCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	get := NewGetCredentialUseCase(f.creds, testLogger())
	deactivate := NewDeactivateCredentialUseCase(f.creds, f.router, f.stopper, testLogger())

	_, err := get.Execute(ctx, testBranch)
	assert.ErrorIs(t, err, accesscontrol.ErrCredentialNotFound)
	assert.ErrorIs(t, deactivate.Execute(ctx, testBranch), accesscontrol.ErrCredentialNotFound)

	f.saveCredential(t, hikvisiontest.AppSecret, true)
	f.stopper.On("StopBranch", testBranch).Return()

	require.NoError(t, deactivate.Execute(ctx, testBranch))
	resp, err := get.Execute(ctx, testBranch)
	require.NoError(t, err)
	assert.False(t, resp.IsActive)

	// deactivating twice is harmless
	require.NoError(t, deactivate.Execute(ctx, testBranch))
	f.stopper.AssertNumberOfCalls(t, "StopBranch", 2)
}

func TestTestConnectionUseCase(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		setup     func(t *testing.T, f *fixture)
		wantOK    bool
		wantMsg   string
		wantCount int
	}{
		{
			name:    "missing credentials",
			setup:   func(t *testing.T, f *fixture) {},
			wantMsg: MessageMissingCredentials,
		},
		{
			name:    "inactive credential",
			setup:   func(t *testing.T, f *fixture) { f.saveCredential(t, hikvisiontest.AppSecret, false) },
			wantMsg: MessageIntegrationOff,
		},
		{
			name:    "wrong secret",
			setup:   func(t *testing.T, f *fixture) { f.saveCredential(t, "wrong", true) },
			wantMsg: MessageAuthRejected,
		},
		{
			name: "token endpoint down",
			setup: func(t *testing.T, f *fixture) {
				f.saveCredential(t, hikvisiontest.AppSecret, true)
				f.provider.SetTokenStatus(http.StatusBadGateway)
			},
			wantMsg: MessageNetworkUnreachable,
		},
		{
			name: "device listing fails",
			setup: func(t *testing.T, f *fixture) {
				f.saveCredential(t, hikvisiontest.AppSecret, true)
				f.provider.FailDevicePage(1, http.StatusInternalServerError)
			},
			wantMsg: "provider error (HTTP 500)",
		},
		{
			name: "success",
			setup: func(t *testing.T, f *fixture) {
				f.saveCredential(t, hikvisiontest.AppSecret, true)
				f.provider.SetDevices(device("Q1", 1), device("Q2", 1, 2))
			},
			wantOK:    true,
			wantMsg:   MessageConnectionOK,
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(t, f)

			res := NewTestConnectionUseCase(f.creds, f.router, testLogger()).Execute(ctx, testBranch)

			assert.Equal(t, tt.wantOK, res.Success)
			assert.Equal(t, tt.wantMsg, res.Message)
			if tt.wantOK {
				require.NotNil(t, res.DeviceCount)
				assert.Equal(t, tt.wantCount, *res.DeviceCount)
			} else {
				assert.Nil(t, res.DeviceCount)
			}
		})
	}

	t.Run("unreachable host", func(t *testing.T) {
		f := newFixture(t)
		cred, err := accesscontrol.NewCredential(testBranch, "http://127.0.0.1:1", hikvisiontest.AppKey, hikvisiontest.AppSecret, "")
		require.NoError(t, err)
		require.NoError(t, f.creds.Save(ctx, cred))

		res := NewTestConnectionUseCase(f.creds, f.router, testLogger()).Execute(ctx, testBranch)
		assert.False(t, res.Success)
		assert.Equal(t, MessageNetworkUnreachable, res.Message)
	})
}

func TestSyncDevicesUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("pages through the listing and marks missing devices stale", func(t *testing.T) {
		f := newFixture(t)
		f.saveCredential(t, hikvisiontest.AppSecret, true)
		uc := f.syncUseCase()

		f.provider.SetDevices(device("Q1", 1), device("Q2", 1, 2), device("Q3", 1))
		got, err := uc.Execute(ctx, testBranch)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, 2, f.provider.Calls(hikvision.PathDevicesGet))

		f.provider.SetDevices(device("Q1", 1), device("Q3", 1))
		got, err = uc.Execute(ctx, testBranch)
		require.NoError(t, err)
		require.Len(t, got, 3)

		stale, err := f.devices.GetBySerial(ctx, testBranch, "Q2")
		require.NoError(t, err)
		assert.True(t, stale.IsStale())
		assert.False(t, stale.IsOnline())
	})

	t.Run("failed later page keeps the previous devices", func(t *testing.T) {
		f := newFixture(t)
		f.saveCredential(t, hikvisiontest.AppSecret, true)
		uc := f.syncUseCase()

		f.provider.SetDevices(device("Q1", 1))
		_, err := uc.Execute(ctx, testBranch)
		require.NoError(t, err)

		f.provider.SetDevices(device("Q7", 1), device("Q8", 1), device("Q9", 1))
		f.provider.FailDevicePage(2, http.StatusInternalServerError)
		_, err = uc.Execute(ctx, testBranch)

		var syncErr *accesscontrol.SyncError
		require.ErrorAs(t, err, &syncErr)
		assert.Equal(t, accesscontrol.SyncPartialData, syncErr.Kind)

		cached, err := NewGetDevicesUseCase(f.devices, testLogger()).Execute(ctx, testBranch)
		require.NoError(t, err)
		require.Len(t, cached, 1)
		assert.Equal(t, "Q1", cached[0].SerialNumber)
		assert.False(t, cached[0].IsStale)
	})

	t.Run("first page failure is provider unreachable", func(t *testing.T) {
		f := newFixture(t)
		f.saveCredential(t, hikvisiontest.AppSecret, true)
		f.provider.FailDevicePage(1, http.StatusServiceUnavailable)

		_, err := f.syncUseCase().Execute(ctx, testBranch)
		var syncErr *accesscontrol.SyncError
		require.ErrorAs(t, err, &syncErr)
		assert.Equal(t, accesscontrol.SyncProviderUnreachable, syncErr.Kind)
	})

	t.Run("short listing is partial data", func(t *testing.T) {
		f := newFixture(t)
		f.saveCredential(t, hikvisiontest.AppSecret, true)
		f.provider.SetDevices(device("Q1", 1))
		f.provider.SetReportedTotal(5)

		_, err := f.syncUseCase().Execute(ctx, testBranch)
		var syncErr *accesscontrol.SyncError
		require.ErrorAs(t, err, &syncErr)
		assert.Equal(t, accesscontrol.SyncPartialData, syncErr.Kind)
	})

	t.Run("entries without serial are skipped", func(t *testing.T) {
		f := newFixture(t)
		f.saveCredential(t, hikvisiontest.AppSecret, true)
		f.provider.SetDevices(device("Q1", 1), device("", 1))

		got, err := f.syncUseCase().Execute(ctx, testBranch)
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("job syncs every active branch", func(t *testing.T) {
		f := newFixture(t)
		f.saveCredential(t, hikvisiontest.AppSecret, true)
		f.provider.SetDevices(device("Q1", 1))

		n, err := NewSyncAllDevicesJob(f.creds, f.syncUseCase(), testLogger()).Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func grantRequest(doorIDs ...string) dto.GrantAccessRequest {
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	return dto.GrantAccessRequest{
		BranchID:   testBranch,
		MemberID:   "m-1",
		MemberName: "Ada",
		DoorIDs:    doorIDs,
		ValidFrom:  from,
		ValidUntil: from.AddDate(0, 1, 0),
	}
}

func (f *fixture) mapperReady(t *testing.T) {
	t.Helper()
	f.saveCredential(t, hikvisiontest.AppSecret, true)
	f.provider.SetDevices(device("Q1", 1, 2), device("Q2", 1))
	_, err := f.syncUseCase().Execute(context.Background(), testBranch)
	require.NoError(t, err)
}

func TestGrantAccessUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("grant twice yields the same privileges", func(t *testing.T) {
		f := newFixture(t)
		f.mapperReady(t)
		uc := NewGrantAccessUseCase(f.router, f.devices, f.persons, f.persons, testLogger())

		first, err := uc.Execute(ctx, grantRequest("Q1-1", "Q2-1"))
		require.NoError(t, err)
		second, err := uc.Execute(ctx, grantRequest("Q1-1", "Q2-1"))
		require.NoError(t, err)

		assert.Equal(t, first.PersonID, second.PersonID)
		assert.Equal(t, 1, f.provider.Calls(hikvision.PathPersonsAdd))
		assert.Len(t, f.provider.Privileges(), 2)

		stored, err := f.persons.ListByPerson(ctx, testBranch, first.PersonID)
		require.NoError(t, err)
		assert.Len(t, stored, 2)
	})

	t.Run("existing provider person is adopted", func(t *testing.T) {
		f := newFixture(t)
		f.mapperReady(t)
		f.provider.AddPerson(hikvision.PersonInfo{PersonID: "P-EXIST", EmployeeNo: "m-1", PersonName: "Ada L"})

		res, err := NewGrantAccessUseCase(f.router, f.devices, f.persons, f.persons, testLogger()).
			Execute(ctx, grantRequest("Q1-1"))
		require.NoError(t, err)
		assert.Equal(t, "P-EXIST", res.PersonID)
		assert.Zero(t, f.provider.Calls(hikvision.PathPersonsAdd))
	})

	t.Run("partial failure keeps granted doors", func(t *testing.T) {
		f := newFixture(t)
		f.mapperReady(t)
		f.provider.FailDoor("Q1-2")

		res, err := NewGrantAccessUseCase(f.router, f.devices, f.persons, f.persons, testLogger()).
			Execute(ctx, grantRequest("Q1-1", "Q1-2", "Q9-1"))

		var mapErr *accesscontrol.MappingError
		require.ErrorAs(t, err, &mapErr)
		assert.Equal(t, accesscontrol.MappingPrivilegeAssignFailed, mapErr.Kind)
		require.Len(t, mapErr.Failures, 2)
		assert.Equal(t, "Q1-2", mapErr.Failures[0].DoorID)
		assert.Equal(t, "Q9-1", mapErr.Failures[1].DoorID)

		require.NotNil(t, res)
		require.Len(t, res.Granted, 1)
		assert.Equal(t, "Q1-1", res.Granted[0].DoorID)
	})

	t.Run("person create failure grants nothing", func(t *testing.T) {
		f := newFixture(t)
		f.mapperReady(t)
		f.provider.FailPersonAdd(true)

		res, err := NewGrantAccessUseCase(f.router, f.devices, f.persons, f.persons, testLogger()).
			Execute(ctx, grantRequest("Q1-1"))

		var mapErr *accesscontrol.MappingError
		require.ErrorAs(t, err, &mapErr)
		assert.Equal(t, accesscontrol.MappingPersonCreateFailed, mapErr.Kind)
		assert.Nil(t, res)
		assert.Empty(t, f.provider.Privileges())
	})

	t.Run("invalid window is a validation error", func(t *testing.T) {
		f := newFixture(t)
		req := grantRequest("Q1-1")
		req.ValidUntil = req.ValidFrom.Add(-time.Hour)

		_, err := NewGrantAccessUseCase(f.router, f.devices, f.persons, f.persons, testLogger()).Execute(ctx, req)
		assert.True(t, apperrors.IsValidationError(err))
	})
}

func TestRevokeAccessUseCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mapperReady(t)

	grant := NewGrantAccessUseCase(f.router, f.devices, f.persons, f.persons, testLogger())
	revoke := NewRevokeAccessUseCase(f.router, f.persons, f.persons, testLogger())
	list := NewListPrivilegesUseCase(f.persons, f.persons, testLogger())

	t.Run("unknown member is a no-op", func(t *testing.T) {
		res, err := revoke.Execute(ctx, dto.RevokeAccessRequest{BranchID: testBranch, MemberID: "nobody"})
		require.NoError(t, err)
		assert.Empty(t, res.Revoked)
	})

	_, err := grant.Execute(ctx, grantRequest("Q1-1", "Q1-2", "Q2-1"))
	require.NoError(t, err)

	t.Run("selected doors", func(t *testing.T) {
		res, err := revoke.Execute(ctx, dto.RevokeAccessRequest{BranchID: testBranch, MemberID: "m-1", DoorIDs: []string{"Q1-2"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Q1-2"}, res.Revoked)

		access, err := list.Execute(ctx, testBranch, "m-1")
		require.NoError(t, err)
		assert.Len(t, access.Privileges, 2)
	})

	t.Run("failed door is reported and kept", func(t *testing.T) {
		f.provider.FailDoor("Q2-1")
		res, err := revoke.Execute(ctx, dto.RevokeAccessRequest{BranchID: testBranch, MemberID: "m-1"})

		var mapErr *accesscontrol.MappingError
		require.ErrorAs(t, err, &mapErr)
		assert.Equal(t, accesscontrol.MappingPrivilegeRevokeFailed, mapErr.Kind)
		assert.Equal(t, []string{"Q1-1"}, res.Revoked)

		access, err := list.Execute(ctx, testBranch, "m-1")
		require.NoError(t, err)
		require.Len(t, access.Privileges, 1)
		assert.Equal(t, "Q2-1", access.Privileges[0].DoorID)
	})

	t.Run("list for unknown member", func(t *testing.T) {
		_, err := list.Execute(ctx, testBranch, "nobody")
		assert.ErrorIs(t, err, accesscontrol.ErrPersonNotFound)
	})
}

func TestOpenDoorUseCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mapperReady(t)
	uc := NewOpenDoorUseCase(f.router, f.devices, testLogger())

	require.NoError(t, uc.Execute(ctx, testBranch, "Q1-2"))
	assert.Equal(t, []string{"Q1-2"}, f.provider.OpenedDoors())

	assert.ErrorIs(t, uc.Execute(ctx, testBranch, "Q1-7"), accesscontrol.ErrDoorNotFound)
	assert.ErrorIs(t, uc.Execute(ctx, testBranch, "Q5-1"), accesscontrol.ErrDoorNotFound)
	assert.ErrorIs(t, uc.Execute(ctx, testBranch, "garbage"), accesscontrol.ErrInvalidDoorID)
}
