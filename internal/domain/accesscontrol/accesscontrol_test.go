package accesscontrol

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCredential(t *testing.T) {
	tests := []struct {
		name    string
		branch  string
		baseURL string
		key     string
		secret  string
		wantErr error
	}{
		{"valid", "b-1", "https://x/", "K1", "S1", nil},
		{"missing branch", " ", "https://x", "K1", "S1", ErrBranchIDRequired},
		{"missing base url", "b-1", "", "K1", "S1", ErrAPIBaseURLRequired},
		{"missing key", "b-1", "https://x", "", "S1", ErrAppKeyRequired},
		{"missing secret", "b-1", "https://x", "K1", "", ErrAppSecretRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCredential(tt.branch, tt.baseURL, tt.key, tt.secret, "")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://x", c.APIBaseURL())
			assert.True(t, c.IsActive())
		})
	}
}

func TestCredential_UpdateKeepsSecretsWhenBlank(t *testing.T) {
	c, err := NewCredential("b-1", "https://x", "K1", "S1", "W1")
	require.NoError(t, err)
	before := c.Fingerprint()

	require.NoError(t, c.Update("https://x", "K1", "", ""))
	assert.Equal(t, "S1", c.AppSecret())
	assert.Equal(t, "W1", c.WebhookSecret())
	assert.Equal(t, before, c.Fingerprint())

	require.NoError(t, c.Update("https://x", "K2", "S2", ""))
	assert.NotEqual(t, before, c.Fingerprint())
}

func TestParseDoorID(t *testing.T) {
	serial, no, err := ParseDoorID("DS-K1T341-2")
	require.NoError(t, err)
	assert.Equal(t, "DS-K1T341", serial)
	assert.Equal(t, 2, no)
	assert.Equal(t, "DS-K1T341-2", DoorID(serial, no))

	for _, bad := range []string{"", "SN1", "SN1-", "-1", "SN1-x"} {
		_, _, err := ParseDoorID(bad)
		assert.True(t, errors.Is(err, ErrInvalidDoorID), bad)
	}
}

func TestNewAccessPrivilege_ValidatesWindow(t *testing.T) {
	now := time.Now()
	_, err := NewAccessPrivilege("b-1", "p-1", "SN1-1", now, now, "")
	assert.ErrorIs(t, err, ErrInvalidValidityWindow)

	p, err := NewAccessPrivilege("b-1", "p-1", "SN1-1", now, now.Add(time.Hour), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultAccessLevel, p.AccessLevel())
}

func TestEvent_MarkProcessedOnce(t *testing.T) {
	e, err := NewEvent(EventFields{EventID: "e-1", BranchID: "b-1", Type: EventTypeEntry}, time.Now())
	require.NoError(t, err)

	assert.True(t, e.MarkProcessed(time.Now()))
	first := *e.ProcessedAt()
	assert.False(t, e.MarkProcessed(time.Now().Add(time.Minute)))
	assert.Equal(t, first, *e.ProcessedAt())
}

func TestMappingError_ListsFailedDoors(t *testing.T) {
	err := &MappingError{
		Kind:     MappingPrivilegeAssignFailed,
		MemberID: "m-1",
		Failures: []DoorFailure{{DoorID: "SN1-2", Reason: "device offline"}},
	}
	assert.Contains(t, err.Error(), "SN1-2: device offline")

	var target *MappingError
	assert.True(t, errors.As(error(err), &target))
}
