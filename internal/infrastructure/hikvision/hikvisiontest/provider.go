// Package hikvisiontest provides an in-memory fake of the provider API for tests.
package hikvisiontest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
)

const (
	AppKey    = "test-app-key"
	AppSecret = "test-app-secret"
)

// Provider is a fake provider server. All exported methods are safe for concurrent use.
type Provider struct {
	Server *httptest.Server

	mu             sync.Mutex
	tokenTTL       time.Duration
	tokenSeq       int
	validTokens    map[string]bool
	tokenCalls     int
	tokenStatus    int
	exchangeDelay  time.Duration
	devices        []hikvision.DeviceInfo
	reportedTotal  int
	deviceFailPage int
	deviceStatus   int
	persons        map[string]hikvision.PersonInfo
	personSeq      int
	personAddFail  bool
	privileges     map[string]hikvision.Privilege
	failDoors      map[string]bool
	events         []hikvision.RawEvent
	pollFail       bool
	ackFail        bool
	acked          []int64
	polledAfter    []int64
	opened         []string
	calls          map[string]int
}

// New starts a fake provider that is closed when the test ends.
func New(t testing.TB) *Provider {
	p := &Provider{
		tokenTTL:    2 * time.Hour,
		validTokens: make(map[string]bool),
		persons:     make(map[string]hikvision.PersonInfo),
		privileges:  make(map[string]hikvision.Privilege),
		failDoors:   make(map[string]bool),
		calls:       make(map[string]int),
	}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Server.Close)
	return p
}

func (p *Provider) URL() string { return p.Server.URL }

func (p *Provider) SetTokenTTL(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenTTL = d
}

// SetTokenStatus makes the token endpoint answer with an HTTP error status; 0 restores normal behavior.
func (p *Provider) SetTokenStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenStatus = status
}

func (p *Provider) SetExchangeDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchangeDelay = d
}

// RevokeTokens invalidates every issued token, as a provider-side expiry would.
func (p *Provider) RevokeTokens() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.validTokens = make(map[string]bool)
}

func (p *Provider) TokenCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenCalls
}

func (p *Provider) SetDevices(devices ...hikvision.DeviceInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.devices = devices
	p.reportedTotal = len(devices)
}

// SetReportedTotal overrides the totalCount of the listing.
func (p *Provider) SetReportedTotal(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reportedTotal = n
}

// FailDevicePage makes the given page answer with status. page 0 disables the failure.
func (p *Provider) FailDevicePage(page, status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deviceFailPage = page
	p.deviceStatus = status
}

func (p *Provider) AddPerson(info hikvision.PersonInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.persons[info.EmployeeNo] = info
}

func (p *Provider) FailPersonAdd(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.personAddFail = fail
}

// FailDoor makes privilege calls for doorID fail.
func (p *Provider) FailDoor(doorID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failDoors[doorID] = true
}

// Privileges returns the granted privileges keyed by "personId|serial-door".
func (p *Provider) Privileges() map[string]hikvision.Privilege {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]hikvision.Privilege, len(p.privileges))
	for k, v := range p.privileges {
		out[k] = v
	}
	return out
}

func (p *Provider) PushEvents(events ...hikvision.RawEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	sort.Slice(p.events, func(i, j int) bool { return p.events[i].Offset < p.events[j].Offset })
}

func (p *Provider) FailPoll(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pollFail = fail
}

func (p *Provider) FailAck(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ackFail = fail
}

func (p *Provider) AckedOffsets() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.acked...)
}

// PolledAfter lists the afterOffset of every message poll received.
func (p *Provider) PolledAfter() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.polledAfter...)
}

func (p *Provider) OpenedDoors() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.opened...)
}

// Calls returns how many requests hit path.
func (p *Provider) Calls(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[path]
}

// AccessEvent builds a raw access event.
func AccessEvent(eventID string, offset int64, data hikvision.AccessEventData) hikvision.RawEvent {
	raw, _ := json.Marshal(data)
	return hikvision.RawEvent{Category: hikvision.CategoryAccess, EventID: eventID, Offset: offset, Data: raw}
}

func (p *Provider) serve(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.calls[r.URL.Path]++
	p.mu.Unlock()

	if r.URL.Path == hikvision.PathTokenGet {
		p.serveToken(w, r)
		return
	}

	p.mu.Lock()
	valid := p.validTokens[r.Header.Get(hikvision.TokenHeader)]
	p.mu.Unlock()
	if !valid {
		writeEnvelope(w, http.StatusOK, hikvision.CodeTokenExpired, "token expired", nil)
		return
	}

	switch r.URL.Path {
	case hikvision.PathDevicesGet:
		p.serveDevices(w, r)
	case hikvision.PathPersonsGet:
		p.servePersonSearch(w, r)
	case hikvision.PathPersonsAdd:
		p.servePersonAdd(w, r)
	case hikvision.PathPrivilegeAdd, hikvision.PathPrivilegeDel:
		p.servePrivilege(w, r)
	case hikvision.PathDoorControl:
		p.serveDoorControl(w, r)
	case hikvision.PathMessages:
		p.serveMessages(w, r)
	case hikvision.PathMessagesOffset:
		p.serveAck(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (p *Provider) serveToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppKey    string `json:"appKey"`
		SecretKey string `json:"secretKey"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	p.mu.Lock()
	p.tokenCalls++
	status, delay := p.tokenStatus, p.exchangeDelay
	p.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if status != 0 {
		writeEnvelope(w, status, "", "unavailable", nil)
		return
	}
	if req.AppKey != AppKey || req.SecretKey != AppSecret {
		writeEnvelope(w, http.StatusOK, hikvision.CodeInvalidAppKey, "invalid appKey or secretKey", nil)
		return
	}

	p.mu.Lock()
	p.tokenSeq++
	tok := "tok-" + strconv.Itoa(p.tokenSeq)
	p.validTokens[tok] = true
	expire := time.Now().Add(p.tokenTTL).Unix()
	p.mu.Unlock()

	writeEnvelope(w, http.StatusOK, hikvision.CodeOK, "success", map[string]any{
		"accessToken": tok,
		"expireTime":  expire,
		"areaDomain":  p.Server.URL,
	})
}

func (p *Provider) serveDevices(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PageIndex int `json:"pageIndex"`
		PageSize  int `json:"pageSize"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.PageSize <= 0 {
		req.PageSize = 100
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deviceFailPage != 0 && req.PageIndex == p.deviceFailPage {
		writeEnvelope(w, p.deviceStatus, "", "device listing failed", nil)
		return
	}

	start := (req.PageIndex - 1) * req.PageSize
	var page []hikvision.DeviceInfo
	if start >= 0 && start < len(p.devices) {
		end := min(start+req.PageSize, len(p.devices))
		page = p.devices[start:end]
	}
	writeEnvelope(w, http.StatusOK, hikvision.CodeOK, "success", map[string]any{
		"totalCount": p.reportedTotal,
		"pageIndex":  req.PageIndex,
		"device":     page,
	})
}

func (p *Provider) servePersonSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeNo string `json:"employeeNo"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	p.mu.Lock()
	defer p.mu.Unlock()
	list := []hikvision.PersonInfo{}
	if info, ok := p.persons[req.EmployeeNo]; ok {
		list = append(list, info)
	}
	writeEnvelope(w, http.StatusOK, hikvision.CodeOK, "success", map[string]any{
		"totalCount": len(list),
		"personList": list,
	})
}

func (p *Provider) servePersonAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeNo string `json:"employeeNo"`
		PersonName string `json:"personName"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.personAddFail {
		writeEnvelope(w, http.StatusOK, "PER000001", "person quota exceeded", nil)
		return
	}
	p.personSeq++
	info := hikvision.PersonInfo{
		PersonID:   fmt.Sprintf("P%04d", p.personSeq),
		EmployeeNo: req.EmployeeNo,
		PersonName: req.PersonName,
	}
	p.persons[req.EmployeeNo] = info
	writeEnvelope(w, http.StatusOK, hikvision.CodeOK, "success", map[string]any{"personId": info.PersonID})
}

func (p *Provider) servePrivilege(w http.ResponseWriter, r *http.Request) {
	var req hikvision.Privilege
	_ = json.NewDecoder(r.Body).Decode(&req)
	doorID := fmt.Sprintf("%s-%d", req.SerialNo, req.DoorNo)
	key := req.PersonID + "|" + doorID

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failDoors[doorID] {
		writeEnvelope(w, http.StatusOK, "ACS000002", "device offline", nil)
		return
	}
	if r.URL.Path == hikvision.PathPrivilegeAdd {
		p.privileges[key] = req
	} else {
		delete(p.privileges, key)
	}
	writeEnvelope(w, http.StatusOK, hikvision.CodeOK, "success", nil)
}

func (p *Provider) serveDoorControl(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SerialNo string `json:"serialNo"`
		DoorNo   int    `json:"doorNo"`
		Command  string `json:"command"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = append(p.opened, fmt.Sprintf("%s-%d", req.SerialNo, req.DoorNo))
	writeEnvelope(w, http.StatusOK, hikvision.CodeOK, "success", nil)
}

func (p *Provider) serveMessages(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AfterOffset      int64 `json:"afterOffset"`
		MaxNumberPerTime int   `json:"maxNumberPerTime"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.polledAfter = append(p.polledAfter, req.AfterOffset)
	if p.pollFail {
		writeEnvelope(w, http.StatusServiceUnavailable, "", "mq unavailable", nil)
		return
	}

	batch := []hikvision.RawEvent{}
	next := req.AfterOffset
	for _, e := range p.events {
		if e.Offset <= req.AfterOffset {
			continue
		}
		if req.MaxNumberPerTime > 0 && len(batch) >= req.MaxNumberPerTime {
			break
		}
		batch = append(batch, e)
		next = e.Offset
	}
	writeEnvelope(w, http.StatusOK, hikvision.CodeOK, "success", map[string]any{
		"nextOffset": next,
		"events":     batch,
	})
}

func (p *Provider) serveAck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Offset int64 `json:"offset"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ackFail {
		writeEnvelope(w, http.StatusInternalServerError, "", "ack failed", nil)
		return
	}
	p.acked = append(p.acked, req.Offset)
	writeEnvelope(w, http.StatusOK, hikvision.CodeOK, "success", nil)
}

func writeEnvelope(w http.ResponseWriter, status int, code, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errorCode": code,
		"message":   message,
		"data":      data,
	})
}
