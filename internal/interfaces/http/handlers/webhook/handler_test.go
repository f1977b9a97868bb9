package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitdesk/accessgate/internal/application/integration/services"
	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	"github.com/fitdesk/accessgate/internal/interfaces/http/handlers/testutil"
)

type stubCredentials struct {
	creds map[string]*accesscontrol.Credential
}

func (s *stubCredentials) GetByBranchID(_ context.Context, branchID string) (*accesscontrol.Credential, error) {
	cred, ok := s.creds[branchID]
	if !ok {
		return nil, accesscontrol.ErrCredentialNotFound
	}
	return cred, nil
}

type stubQueue struct {
	err     error
	batches map[string][]hikvision.RawEvent
}

func (q *stubQueue) Enqueue(branchID string, events []hikvision.RawEvent) error {
	if q.err != nil {
		return q.err
	}
	if q.batches == nil {
		q.batches = make(map[string][]hikvision.RawEvent)
	}
	q.batches[branchID] = append(q.batches[branchID], events...)
	return nil
}

func newCredential(t *testing.T, branchID, webhookSecret string) *accesscontrol.Credential {
	t.Helper()
	cred, err := accesscontrol.NewCredential(branchID, "https://isgp.example.com", "key", "secret", webhookSecret)
	require.NoError(t, err)
	return cred
}

func newTestHandler(t *testing.T, queue *stubQueue) *Handler {
	t.Helper()
	inactive := newCredential(t, "b-off", "hook")
	inactive.Deactivate()

	creds := &stubCredentials{creds: map[string]*accesscontrol.Credential{
		"b1":       newCredential(t, "b1", "hook"),
		"b-nohook": newCredential(t, "b-nohook", ""),
		"b-off":    inactive,
	}}
	return NewHandler(creds, queue, testutil.NewMockLogger())
}

func batchBody(events ...hikvision.RawEvent) string {
	b, _ := json.Marshal(hikvision.WebhookBatch{Events: events})
	return string(b)
}

func accessEvent(id string, offset int64) hikvision.RawEvent {
	return hikvision.RawEvent{
		Category: hikvision.CategoryAccess,
		EventID:  id,
		Offset:   offset,
		Data:     json.RawMessage(`{"serialNo":"Q1","doorNo":1,"eventCode":1,"direction":"in","personId":"P1","occurTime":"2026-10-14T08:00:00+00:00"}`),
	}
}

func TestHandler_Receive(t *testing.T) {
	tests := []struct {
		name       string
		branchID   string
		secret     string
		body       string
		queueErr   error
		wantStatus int
	}{
		{"unknown branch", "b-missing", "hook", batchBody(accessEvent("e1", 1)), nil, http.StatusNotFound},
		{"inactive branch", "b-off", "hook", batchBody(accessEvent("e1", 1)), nil, http.StatusConflict},
		{"no webhook secret configured", "b-nohook", "", batchBody(accessEvent("e1", 1)), nil, http.StatusServiceUnavailable},
		{"wrong secret", "b1", "nope", batchBody(accessEvent("e1", 1)), nil, http.StatusUnauthorized},
		{"missing secret", "b1", "", batchBody(accessEvent("e1", 1)), nil, http.StatusUnauthorized},
		{"malformed payload", "b1", "hook", "{", nil, http.StatusBadRequest},
		{"empty batch", "b1", "hook", batchBody(), nil, http.StatusAccepted},
		{"queue full", "b1", "hook", batchBody(accessEvent("e1", 1)), services.ErrQueueFull, http.StatusServiceUnavailable},
		{"intake stopped", "b1", "hook", batchBody(accessEvent("e1", 1)), services.ErrIntakeStopped, http.StatusServiceUnavailable},
		{"accepted", "b1", "hook", batchBody(accessEvent("e1", 1), accessEvent("e2", 2)), nil, http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := &stubQueue{err: tt.queueErr}
			h := newTestHandler(t, queue)

			c, w := testutil.NewTestContext(http.MethodPost, "/webhooks/hikvision/"+tt.branchID, tt.body)
			testutil.SetURLParam(c, "branchId", tt.branchID)
			if tt.secret != "" {
				c.Request.Header.Set(SecretHeader, tt.secret)
			}
			h.Receive(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusAccepted {
				assert.Empty(t, queue.batches)
			}
		})
	}
}

func TestHandler_ReceiveQueuesEvents(t *testing.T) {
	queue := &stubQueue{}
	h := newTestHandler(t, queue)

	c, w := testutil.NewTestContext(http.MethodPost, "/webhooks/hikvision/b1", batchBody(accessEvent("e1", 1), accessEvent("e2", 2)))
	testutil.SetURLParam(c, "branchId", "b1")
	c.Request.Header.Set(SecretHeader, "hook")
	h.Receive(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, queue.batches["b1"], 2)
	assert.Equal(t, "e2", queue.batches["b1"][1].EventID)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data map[string]int
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 2, data["accepted"])
}

func TestHandler_ReceiveQueueFullSetsRetryAfter(t *testing.T) {
	h := newTestHandler(t, &stubQueue{err: services.ErrQueueFull})

	c, w := testutil.NewTestContext(http.MethodPost, "/webhooks/hikvision/b1", batchBody(accessEvent("e1", 1)))
	testutil.SetURLParam(c, "branchId", "b1")
	c.Request.Header.Set(SecretHeader, "hook")
	h.Receive(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "5", w.Header().Get("Retry-After"))
}
