// Package hikvision is the outbound client of the cloud access-control provider.
package hikvision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const (
	// maxResponseSize bounds provider response bodies (4MB).
	maxResponseSize = 4 << 20

	tracerName = "github.com/fitdesk/accessgate/hikvision"

	// extraAreaDomain is the oauth2.Token extra holding the regional API host.
	extraAreaDomain = "areaDomain"
)

// TokenSource supplies the access token of one branch.
// Invalidate drops the cached token after the provider rejected it.
type TokenSource interface {
	Token(ctx context.Context) (*oauth2.Token, error)
	Invalidate()
}

// NewHTTPClient returns an http.Client whose transport records a span per provider request.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "hikvision " + r.URL.Path
			}),
		),
	}
}

// AreaDomain returns the regional API host carried by a token, or "".
func AreaDomain(tok *oauth2.Token) string {
	if tok == nil {
		return ""
	}
	if d, ok := tok.Extra(extraAreaDomain).(string); ok {
		return strings.TrimRight(d, "/")
	}
	return ""
}

// Client issues authenticated calls on behalf of one branch.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	tracer     trace.Tracer
}

func NewClient(baseURL string, httpClient *http.Client, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(15 * time.Second)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		tracer:     otel.Tracer(tracerName),
	}
}

// call posts body to path and decodes the envelope data into out.
// A token rejection invalidates the branch token and the call is retried once.
func (c *Client) call(ctx context.Context, path string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "hikvision.call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("hikvision.path", path)),
	)
	defer span.End()

	err := c.callOnce(ctx, path, body, out)
	if apiErr, ok := AsAPIError(err); ok && apiErr.IsAuth() {
		span.AddEvent("token rejected, retrying")
		c.tokens.Invalidate()
		err = c.callOnce(ctx, path, body, out)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) callOnce(ctx context.Context, path string, body, out any) error {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	base := c.baseURL
	if d := AreaDomain(tok); d != "" {
		base = d
	}
	return postJSON(ctx, c.httpClient, base, path, tok.AccessToken, body, out)
}

func postJSON(ctx context.Context, httpClient *http.Client, baseURL, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hikvision %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", path, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Path: path, StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code = env.ErrorCode
			apiErr.Message = env.Message
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, decodeErr)
	}
	if env.ErrorCode != CodeOK {
		return &APIError{Path: path, StatusCode: resp.StatusCode, Code: env.ErrorCode, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s data: %w", path, err)
	}
	return nil
}

// Authenticator exchanges branch credentials for access tokens.
type Authenticator struct {
	httpClient *http.Client
}

func NewAuthenticator(httpClient *http.Client) *Authenticator {
	if httpClient == nil {
		httpClient = NewHTTPClient(15 * time.Second)
	}
	return &Authenticator{httpClient: httpClient}
}

// Exchange requests a new access token. The returned token carries the
// provider area domain as the "areaDomain" extra.
func (a *Authenticator) Exchange(ctx context.Context, baseURL, appKey, appSecret string) (*oauth2.Token, error) {
	var data tokenData
	err := postJSON(ctx, a.httpClient, strings.TrimRight(baseURL, "/"), PathTokenGet, "",
		tokenRequest{AppKey: appKey, SecretKey: appSecret}, &data)
	if err != nil {
		return nil, err
	}
	if data.AccessToken == "" {
		return nil, errors.New("token response has no access token")
	}
	if data.ExpireTime <= 0 {
		return nil, errors.New("token response has no expiry")
	}

	tok := &oauth2.Token{
		AccessToken: data.AccessToken,
		TokenType:   TokenHeader,
		Expiry:      time.Unix(data.ExpireTime, 0).UTC(),
	}
	return tok.WithExtra(map[string]interface{}{extraAreaDomain: data.AreaDomain}), nil
}
