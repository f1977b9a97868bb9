package hikvision

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Endpoint paths, relative to the branch API base URL or its area domain.
const (
	PathTokenGet       = "/api/hccgw/platform/v1/token/get"
	PathDevicesGet     = "/api/hccgw/resource/v1/devices/get"
	PathPersonsGet     = "/api/hccgw/person/v1/persons/get"
	PathPersonsAdd     = "/api/hccgw/person/v1/persons/add"
	PathPrivilegeAdd   = "/api/hccgw/acs/v1/privilege/add"
	PathPrivilegeDel   = "/api/hccgw/acs/v1/privilege/delete"
	PathDoorControl    = "/api/hccgw/acs/v1/door/remote/control"
	PathMessages       = "/api/hccgw/rawmsg/v1/mq/messages"
	PathMessagesOffset = "/api/hccgw/rawmsg/v1/mq/offset"
)

// TokenHeader carries the access token on every authenticated call.
const TokenHeader = "Token"

type envelope struct {
	ErrorCode string          `json:"errorCode"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

type tokenRequest struct {
	AppKey    string `json:"appKey"`
	SecretKey string `json:"secretKey"`
}

type tokenData struct {
	AccessToken string `json:"accessToken"`
	ExpireTime  int64  `json:"expireTime"` // unix seconds
	AreaDomain  string `json:"areaDomain"`
}

type pageRequest struct {
	PageIndex int `json:"pageIndex"`
	PageSize  int `json:"pageSize"`
}

// DoorInfo is one door of a provider device.
type DoorInfo struct {
	DoorNo     int    `json:"doorNo"`
	DoorName   string `json:"doorName"`
	DoorStatus string `json:"doorStatus"`
}

// DeviceInfo is a provider device entry.
type DeviceInfo struct {
	SerialNo       string     `json:"serialNo"`
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	OnlineStatus   int        `json:"onlineStatus"` // 1 online, 0 offline
	IsCloudManaged bool       `json:"isCloudManaged"`
	Doors          []DoorInfo `json:"doors"`
}

func (d DeviceInfo) Online() bool { return d.OnlineStatus == 1 }

// DevicePage is one page of the device listing.
type DevicePage struct {
	TotalCount int          `json:"totalCount"`
	PageIndex  int          `json:"pageIndex"`
	Devices    []DeviceInfo `json:"device"`
}

// PersonInfo is a provider person record.
type PersonInfo struct {
	PersonID   string `json:"personId"`
	EmployeeNo string `json:"employeeNo"`
	PersonName string `json:"personName"`
}

type personSearchRequest struct {
	EmployeeNo string `json:"employeeNo"`
	PageIndex  int    `json:"pageIndex"`
	PageSize   int    `json:"pageSize"`
}

type personSearchData struct {
	TotalCount int          `json:"totalCount"`
	PersonList []PersonInfo `json:"personList"`
}

type personAddRequest struct {
	EmployeeNo string `json:"employeeNo"`
	PersonName string `json:"personName"`
}

type personAddData struct {
	PersonID string `json:"personId"`
}

// Privilege grants one provider person access to one door within a time window.
type Privilege struct {
	PersonID    string `json:"personId"`
	SerialNo    string `json:"serialNo"`
	DoorNo      int    `json:"doorNo"`
	BeginTime   string `json:"beginTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	AccessLevel string `json:"accessLevel,omitempty"`
}

type doorControlRequest struct {
	SerialNo string `json:"serialNo"`
	DoorNo   int    `json:"doorNo"`
	Command  string `json:"command"`
}

type messagesRequest struct {
	AfterOffset      int64 `json:"afterOffset"`
	MaxNumberPerTime int   `json:"maxNumberPerTime"`
}

type offsetRequest struct {
	Offset int64 `json:"offset"`
}

// MessageBatch is the answer to a message poll.
type MessageBatch struct {
	NextOffset int64      `json:"nextOffset"`
	Events     []RawEvent `json:"events"`
}

// WebhookBatch is the body the provider pushes to the webhook endpoint.
type WebhookBatch struct {
	Events []RawEvent `json:"events"`
}

// CategoryAccess tags door access events. Other categories are ignored by ingestion.
const CategoryAccess = "access"

// RawEvent is the tagged envelope of every provider event; Data is decoded per Category.
type RawEvent struct {
	Category string          `json:"category"`
	EventID  string          `json:"eventId"`
	Offset   int64           `json:"offset"`
	Data     json.RawMessage `json:"data"`
}

// AccessEventData is the payload of a CategoryAccess event.
type AccessEventData struct {
	SerialNo   string `json:"serialNo"`
	DoorNo     int    `json:"doorNo"`
	EventCode  int    `json:"eventCode"`
	Direction  string `json:"direction"` // "in" or "out"
	PersonID   string `json:"personId"`
	EmployeeNo string `json:"employeeNo"`
	CardNo     string `json:"cardNo"`
	PictureURL string `json:"pictureUrl"`
	OccurTime  string `json:"occurTime"`
}

var ErrUnsupportedCategory = errors.New("unsupported event category")

// AccessData decodes the access payload of the event.
func (e RawEvent) AccessData() (*AccessEventData, error) {
	if e.Category != CategoryAccess {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCategory, e.Category)
	}
	if len(e.Data) == 0 {
		return nil, errors.New("access event has no data")
	}
	var data AccessEventData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("malformed access event data: %w", err)
	}
	return &data, nil
}
