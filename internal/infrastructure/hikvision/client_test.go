package hikvision_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision/hikvisiontest"
)

// exchangeSource fetches a token on first use and after every Invalidate.
type exchangeSource struct {
	auth        *hikvision.Authenticator
	baseURL     string
	mu          sync.Mutex
	tok         *oauth2.Token
	invalidated int
}

func (s *exchangeSource) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tok != nil {
		return s.tok, nil
	}
	tok, err := s.auth.Exchange(ctx, s.baseURL, hikvisiontest.AppKey, hikvisiontest.AppSecret)
	if err != nil {
		return nil, err
	}
	s.tok = tok
	return tok, nil
}

func (s *exchangeSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = nil
	s.invalidated++
}

func newClient(t *testing.T) (*hikvision.Client, *hikvisiontest.Provider, *exchangeSource) {
	p := hikvisiontest.New(t)
	httpClient := hikvision.NewHTTPClient(5 * time.Second)
	src := &exchangeSource{auth: hikvision.NewAuthenticator(httpClient), baseURL: p.URL()}
	return hikvision.NewClient(p.URL(), httpClient, src), p, src
}

func TestAuthenticator_Exchange(t *testing.T) {
	p := hikvisiontest.New(t)
	auth := hikvision.NewAuthenticator(nil)
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		tok, err := auth.Exchange(ctx, p.URL()+"/", hikvisiontest.AppKey, hikvisiontest.AppSecret)
		require.NoError(t, err)
		assert.NotEmpty(t, tok.AccessToken)
		assert.True(t, tok.Expiry.After(time.Now()))
		assert.Equal(t, p.URL(), hikvision.AreaDomain(tok))
	})

	t.Run("rejected credentials", func(t *testing.T) {
		_, err := auth.Exchange(ctx, p.URL(), hikvisiontest.AppKey, "wrong")
		apiErr, ok := hikvision.AsAPIError(err)
		require.True(t, ok)
		assert.True(t, apiErr.IsInvalidCredentials())
		assert.Equal(t, hikvision.CodeInvalidAppKey, apiErr.Code)
	})

	t.Run("provider outage is not a credential problem", func(t *testing.T) {
		p.SetTokenStatus(http.StatusBadGateway)
		defer p.SetTokenStatus(0)
		_, err := auth.Exchange(ctx, p.URL(), hikvisiontest.AppKey, hikvisiontest.AppSecret)
		apiErr, ok := hikvision.AsAPIError(err)
		require.True(t, ok)
		assert.False(t, apiErr.IsInvalidCredentials())
		assert.True(t, apiErr.IsServer())
	})
}

func TestClient_RetriesOnceAfterTokenRejection(t *testing.T) {
	client, p, src := newClient(t)
	p.SetDevices(hikvision.DeviceInfo{SerialNo: "SN1"})
	ctx := context.Background()

	_, err := client.CountDevices(ctx)
	require.NoError(t, err)

	p.RevokeTokens()
	n, err := client.CountDevices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, src.invalidated)
	assert.Equal(t, 2, p.TokenCalls())
}

func TestClient_ListDevicesPaging(t *testing.T) {
	client, p, _ := newClient(t)
	p.SetDevices(
		hikvision.DeviceInfo{SerialNo: "SN1", OnlineStatus: 1, Doors: []hikvision.DoorInfo{{DoorNo: 1, DoorName: "Main"}}},
		hikvision.DeviceInfo{SerialNo: "SN2"},
		hikvision.DeviceInfo{SerialNo: "SN3"},
	)

	page, err := client.ListDevices(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Devices, 2)
	assert.True(t, page.Devices[0].Online())
	assert.Equal(t, "Main", page.Devices[0].Doors[0].DoorName)

	page, err = client.ListDevices(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Devices, 1)
	assert.Equal(t, "SN3", page.Devices[0].SerialNo)
}

func TestClient_PersonsAndPrivileges(t *testing.T) {
	client, p, _ := newClient(t)
	ctx := context.Background()

	found, err := client.FindPersonByEmployeeNo(ctx, "m-1")
	require.NoError(t, err)
	assert.Nil(t, found)

	created, err := client.AddPerson(ctx, "m-1", "Ada")
	require.NoError(t, err)
	assert.NotEmpty(t, created.PersonID)

	found, err = client.FindPersonByEmployeeNo(ctx, "m-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.PersonID, found.PersonID)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	priv := hikvision.NewPrivilege(created.PersonID, "SN1", 1, from, from.AddDate(0, 1, 0), "normal")
	require.NoError(t, client.AddPrivilege(ctx, priv))
	assert.Len(t, p.Privileges(), 1)

	require.NoError(t, client.DeletePrivilege(ctx, priv))
	assert.Empty(t, p.Privileges())
}

func TestClient_MessagesAndAck(t *testing.T) {
	client, p, _ := newClient(t)
	ctx := context.Background()
	p.PushEvents(
		hikvisiontest.AccessEvent("e1", 101, hikvision.AccessEventData{SerialNo: "SN1", DoorNo: 1, EventCode: 1}),
		hikvisiontest.AccessEvent("e2", 102, hikvision.AccessEventData{SerialNo: "SN1", DoorNo: 1, EventCode: 1}),
	)

	batch, err := client.PollMessages(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, batch.Events, 2)
	assert.Equal(t, int64(102), batch.NextOffset)

	data, err := batch.Events[0].AccessData()
	require.NoError(t, err)
	assert.Equal(t, "SN1", data.SerialNo)

	require.NoError(t, client.AckMessages(ctx, 102))
	assert.Equal(t, []int64{102}, p.AckedOffsets())
}

func TestClient_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == hikvision.PathTokenGet {
			_, _ = w.Write([]byte(`{"errorCode":"0","data":{"accessToken":"t","expireTime":4102444800}}`))
			return
		}
		assert.Equal(t, "t", r.Header.Get(hikvision.TokenHeader))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errorCode":"SYS000500","message":"internal"}`))
	}))
	defer srv.Close()

	src := &exchangeSource{auth: hikvision.NewAuthenticator(srv.Client()), baseURL: srv.URL}
	client := hikvision.NewClient(srv.URL, srv.Client(), src)

	err := client.RemoteOpenDoor(context.Background(), "SN1", 1)
	apiErr, ok := hikvision.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "SYS000500", apiErr.Code)
	assert.True(t, apiErr.IsServer())
	assert.False(t, apiErr.IsAuth())
}

func TestRawEvent_AccessData(t *testing.T) {
	_, err := hikvision.RawEvent{Category: "alarm", EventID: "x"}.AccessData()
	assert.ErrorIs(t, err, hikvision.ErrUnsupportedCategory)

	_, err = hikvision.RawEvent{Category: hikvision.CategoryAccess, EventID: "x", Data: []byte(`{"doorNo":"one"}`)}.AccessData()
	assert.Error(t, err)
}
