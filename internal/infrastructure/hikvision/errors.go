package hikvision

import (
	"errors"
	"fmt"
	"net/http"
)

// Provider result codes carried in the response envelope.
const (
	CodeOK            = "0"
	CodeInvalidAppKey = "OPEN000001"
	CodeInvalidSecret = "OPEN000002"
	CodeTokenInvalid  = "OPEN000003"
	CodeTokenExpired  = "OPEN000004"
)

// APIError is a non-success provider answer: either an HTTP status >= 300
// or an envelope whose errorCode is not "0".
type APIError struct {
	Path       string
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("hikvision %s: HTTP %d code %s: %s", e.Path, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("hikvision %s: HTTP %d", e.Path, e.StatusCode)
}

// IsAuth reports a rejected or expired access token.
func (e *APIError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.Code == CodeTokenInvalid || e.Code == CodeTokenExpired
}

// IsServer reports a provider-side failure.
func (e *APIError) IsServer() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// IsInvalidCredentials reports that the token endpoint refused the appKey/appSecret pair.
func (e *APIError) IsInvalidCredentials() bool {
	switch {
	case e.Code == CodeInvalidAppKey, e.Code == CodeInvalidSecret:
		return true
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return true
	}
	return false
}

// IsExchangeRefusal reports a token endpoint answer that retrying cannot fix:
// rejected credentials or any non-zero result code outside a server failure.
func (e *APIError) IsExchangeRefusal() bool {
	if e.IsInvalidCredentials() {
		return true
	}
	return e.Code != "" && e.Code != CodeOK && !e.IsServer()
}

// AsAPIError extracts an APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
