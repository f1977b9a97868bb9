package accesscontrol

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/fitdesk/accessgate/internal/shared/biztime"
	"github.com/fitdesk/accessgate/internal/shared/id"
)

var (
	ErrBranchIDRequired   = errors.New("branch id is required")
	ErrAPIBaseURLRequired = errors.New("api base url is required")
	ErrAppKeyRequired     = errors.New("app key is required")
	ErrAppSecretRequired  = errors.New("app secret is required")
)

// Credential is a branch's API credential for the access-control provider.
// Only non-emptiness is checked here; reachability is checked by the connection prober.
type Credential struct {
	id            uint
	sid           string
	branchID      string
	apiBaseURL    string
	appKey        string
	appSecret     string
	webhookSecret string
	isActive      bool
	createdAt     time.Time
	updatedAt     time.Time
}

func NewCredential(branchID, apiBaseURL, appKey, appSecret, webhookSecret string) (*Credential, error) {
	c := &Credential{branchID: strings.TrimSpace(branchID), isActive: true}
	if c.branchID == "" {
		return nil, ErrBranchIDRequired
	}
	if err := c.setSecrets(apiBaseURL, appKey, appSecret, webhookSecret); err != nil {
		return nil, err
	}

	sid, err := id.New(id.PrefixCredential)
	if err != nil {
		return nil, err
	}
	now := biztime.NowUTC()
	c.sid = sid
	c.createdAt = now
	c.updatedAt = now
	return c, nil
}

func ReconstructCredential(
	id uint,
	sid, branchID, apiBaseURL, appKey, appSecret, webhookSecret string,
	isActive bool,
	createdAt, updatedAt time.Time,
) *Credential {
	return &Credential{
		id:            id,
		sid:           sid,
		branchID:      branchID,
		apiBaseURL:    apiBaseURL,
		appKey:        appKey,
		appSecret:     appSecret,
		webhookSecret: webhookSecret,
		isActive:      isActive,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (c *Credential) setSecrets(apiBaseURL, appKey, appSecret, webhookSecret string) error {
	apiBaseURL = strings.TrimRight(strings.TrimSpace(apiBaseURL), "/")
	appKey = strings.TrimSpace(appKey)
	switch {
	case apiBaseURL == "":
		return ErrAPIBaseURLRequired
	case appKey == "":
		return ErrAppKeyRequired
	case appSecret == "":
		return ErrAppSecretRequired
	}
	c.apiBaseURL = apiBaseURL
	c.appKey = appKey
	c.appSecret = appSecret
	c.webhookSecret = webhookSecret
	return nil
}

// Update replaces the credential values. An empty appSecret or webhookSecret keeps the stored one,
// so settings screens can save without re-entering secrets they never see.
func (c *Credential) Update(apiBaseURL, appKey, appSecret, webhookSecret string) error {
	if appSecret == "" {
		appSecret = c.appSecret
	}
	if webhookSecret == "" {
		webhookSecret = c.webhookSecret
	}
	if err := c.setSecrets(apiBaseURL, appKey, appSecret, webhookSecret); err != nil {
		return err
	}
	c.updatedAt = biztime.NowUTC()
	return nil
}

func (c *Credential) Activate() {
	c.isActive = true
	c.updatedAt = biztime.NowUTC()
}

func (c *Credential) Deactivate() {
	c.isActive = false
	c.updatedAt = biztime.NowUTC()
}

func (c *Credential) ID() uint              { return c.id }
func (c *Credential) SID() string           { return c.sid }
func (c *Credential) BranchID() string      { return c.branchID }
func (c *Credential) APIBaseURL() string    { return c.apiBaseURL }
func (c *Credential) AppKey() string        { return c.appKey }
func (c *Credential) AppSecret() string     { return c.appSecret }
func (c *Credential) WebhookSecret() string { return c.webhookSecret }
func (c *Credential) IsActive() bool        { return c.isActive }
func (c *Credential) CreatedAt() time.Time  { return c.createdAt }
func (c *Credential) UpdatedAt() time.Time  { return c.updatedAt }

// SetID sets the ID (only for persistence layer use)
func (c *Credential) SetID(id uint) {
	c.id = id
}

// Fingerprint identifies the credential values without exposing the secret.
// Tokens minted under a different fingerprint are discarded.
func (c *Credential) Fingerprint() string {
	sum := sha256.Sum256([]byte(c.apiBaseURL + "\x00" + c.appKey + "\x00" + c.appSecret))
	return hex.EncodeToString(sum[:8])
}
