package repository

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/persistence/models"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newDevice(t *testing.T, branchID, serial string, doors ...accesscontrol.Door) *accesscontrol.Device {
	d, err := accesscontrol.NewSyncedDevice(branchID, serial, "Front "+serial, "accessControllerDevice", true, true, doors, time.Now().UTC())
	require.NoError(t, err)
	return d
}

func TestCredentialRepository_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepository(db, testLogger())
	ctx := context.Background()

	t.Run("missing branch returns not found", func(t *testing.T) {
		_, err := repo.GetByBranchID(ctx, "nope")
		assert.ErrorIs(t, err, accesscontrol.ErrCredentialNotFound)
	})

	t.Run("save then update keeps one row", func(t *testing.T) {
		cred, err := accesscontrol.NewCredential("b1", "https://isgp.example.com/", "key", "secret", "hook")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, cred))
		assert.NotZero(t, cred.ID())

		require.NoError(t, cred.Update("https://isgp.example.com", "key2", "", ""))
		cred.Deactivate()
		require.NoError(t, repo.Save(ctx, cred))

		found, err := repo.GetByBranchID(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "key2", found.AppKey())
		assert.Equal(t, "secret", found.AppSecret())
		assert.Equal(t, "hook", found.WebhookSecret())
		assert.False(t, found.IsActive())

		var count int64
		db.Model(&models.CredentialModel{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("list active skips deactivated", func(t *testing.T) {
		cred, err := accesscontrol.NewCredential("b2", "https://isgp.example.com", "k", "s", "")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, cred))

		active, err := repo.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "b2", active[0].BranchID())
	})
}

func TestDeviceRepository_ReplaceBranch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeviceRepository(db, testLogger())
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	first := []*accesscontrol.Device{
		newDevice(t, "b1", "SN1", accesscontrol.Door{DoorNo: 1, DoorName: "Main"}),
		newDevice(t, "b1", "SN2", accesscontrol.Door{DoorNo: 1}, accesscontrol.Door{DoorNo: 2}),
	}
	require.NoError(t, repo.ReplaceBranch(ctx, "b1", first, t0))
	require.NoError(t, repo.ReplaceBranch(ctx, "b2", []*accesscontrol.Device{newDevice(t, "b2", "SN9")}, t0))

	sn2, err := repo.GetBySerial(ctx, "b1", "SN2")
	require.NoError(t, err)
	assert.Equal(t, []string{"SN2-1", "SN2-2"}, sn2.DoorIDs())

	t.Run("vanished device is kept as stale and offline", func(t *testing.T) {
		t1 := t0.Add(time.Hour)
		second := []*accesscontrol.Device{newDevice(t, "b1", "SN1", accesscontrol.Door{DoorNo: 1, DoorName: "Lobby"})}
		require.NoError(t, repo.ReplaceBranch(ctx, "b1", second, t1))

		devices, err := repo.ListByBranch(ctx, "b1")
		require.NoError(t, err)
		require.Len(t, devices, 2)

		assert.Equal(t, "SN1", devices[0].SerialNumber())
		assert.False(t, devices[0].IsStale())
		door, ok := devices[0].Door(1)
		require.True(t, ok)
		assert.Equal(t, "Lobby", door.DoorName)

		assert.Equal(t, "SN2", devices[1].SerialNumber())
		assert.True(t, devices[1].IsStale())
		assert.False(t, devices[1].IsOnline())
	})

	t.Run("other branches are untouched", func(t *testing.T) {
		devices, err := repo.ListByBranch(ctx, "b2")
		require.NoError(t, err)
		require.Len(t, devices, 1)
		assert.False(t, devices[0].IsStale())
	})

	t.Run("empty listing marks everything stale", func(t *testing.T) {
		require.NoError(t, repo.ReplaceBranch(ctx, "b2", nil, t0.Add(2*time.Hour)))
		devices, err := repo.ListByBranch(ctx, "b2")
		require.NoError(t, err)
		require.Len(t, devices, 1)
		assert.True(t, devices[0].IsStale())
	})

	t.Run("unknown serial", func(t *testing.T) {
		_, err := repo.GetBySerial(ctx, "b1", "missing")
		assert.ErrorIs(t, err, accesscontrol.ErrDeviceNotFound)
	})
}

func TestPersonRepository_PersonsAndPrivileges(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPersonRepository(db, testLogger())
	ctx := context.Background()

	p, err := accesscontrol.NewPerson("b1", "m-100", "P-1", "Ada")
	require.NoError(t, err)
	created, err := repo.Create(ctx, p)
	require.NoError(t, err)
	assert.NotZero(t, created.ID())

	t.Run("duplicate create returns existing mapping", func(t *testing.T) {
		dup, err := accesscontrol.NewPerson("b1", "m-100", "P-2", "Ada")
		require.NoError(t, err)
		got, err := repo.Create(ctx, dup)
		require.NoError(t, err)
		assert.Equal(t, "P-1", got.PersonID())
	})

	t.Run("upsert replaces validity window", func(t *testing.T) {
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		priv, err := accesscontrol.NewAccessPrivilege("b1", "P-1", "SN1-1", from, from.AddDate(0, 1, 0), "")
		require.NoError(t, err)
		require.NoError(t, repo.Upsert(ctx, priv))

		again, err := accesscontrol.NewAccessPrivilege("b1", "P-1", "SN1-1", from, from.AddDate(1, 0, 0), "vip")
		require.NoError(t, err)
		require.NoError(t, repo.Upsert(ctx, again))

		list, err := repo.ListByPerson(ctx, "b1", "P-1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "vip", list[0].AccessLevel())
		assert.True(t, list[0].ValidUntil().Equal(from.AddDate(1, 0, 0)))
	})

	t.Run("delete removes only the named door", func(t *testing.T) {
		from := time.Now().UTC()
		other, err := accesscontrol.NewAccessPrivilege("b1", "P-1", "SN1-2", from, from.Add(time.Hour), "")
		require.NoError(t, err)
		require.NoError(t, repo.Upsert(ctx, other))

		require.NoError(t, repo.Delete(ctx, "b1", "P-1", "SN1-1"))
		list, err := repo.ListByPerson(ctx, "b1", "P-1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "SN1-2", list[0].DoorID())
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := repo.GetByMemberID(ctx, "b1", "ghost")
		assert.ErrorIs(t, err, accesscontrol.ErrPersonNotFound)
	})
}

func TestEventRepository_Idempotence(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEventRepository(db, testLogger())
	ctx := context.Background()
	now := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)

	ev, err := accesscontrol.NewEvent(accesscontrol.EventFields{
		EventID:  "evt-1",
		BranchID: "b1",
		Type:     accesscontrol.EventTypeEntry,
		Time:     now,
		DoorID:   "SN1-1",
		Offset:   101,
		Source:   accesscontrol.EventSourcePoll,
	}, now)
	require.NoError(t, err)

	stored, err := repo.SaveIfAbsent(ctx, ev)
	require.NoError(t, err)
	assert.False(t, stored.IsProcessed())

	t.Run("second save keeps first copy", func(t *testing.T) {
		dup, err := accesscontrol.NewEvent(accesscontrol.EventFields{
			EventID:  "evt-1",
			BranchID: "b1",
			Type:     accesscontrol.EventTypeDenied,
			Time:     now,
			Source:   accesscontrol.EventSourceWebhook,
		}, now)
		require.NoError(t, err)
		got, err := repo.SaveIfAbsent(ctx, dup)
		require.NoError(t, err)
		assert.Equal(t, accesscontrol.EventTypeEntry, got.Type())
		assert.Equal(t, accesscontrol.EventSourcePoll, got.Source())
	})

	t.Run("processed flips once", func(t *testing.T) {
		changed, err := repo.MarkProcessed(ctx, "evt-1", now)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = repo.MarkProcessed(ctx, "evt-1", now.Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, changed)

		got, err := repo.GetByEventID(ctx, "evt-1")
		require.NoError(t, err)
		assert.True(t, got.IsProcessed())
	})

	t.Run("concurrent marks agree on a single winner", func(t *testing.T) {
		second, err := accesscontrol.NewEvent(accesscontrol.EventFields{EventID: "evt-2", BranchID: "b1", Time: now}, now)
		require.NoError(t, err)
		_, err = repo.SaveIfAbsent(ctx, second)
		require.NoError(t, err)

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repo.MarkProcessed(ctx, "evt-2", now)
				if err == nil && ok {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})

	t.Run("list by branch", func(t *testing.T) {
		events, err := repo.ListByBranch(ctx, "b1", now.Add(-time.Hour), 10)
		require.NoError(t, err)
		assert.Len(t, events, 2)

		_, err = repo.GetByEventID(ctx, "missing")
		assert.ErrorIs(t, err, accesscontrol.ErrEventNotFound)
	})
}
