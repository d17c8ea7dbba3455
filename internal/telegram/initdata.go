// Package telegram verifies Telegram Mini App launch credentials.
package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pulseofpair/pairsync/internal/util"
)

const (
	webAppDataKey      = "WebAppData"
	invitePrefix       = "invite_"
	startParamKey      = "start_param"
	defaultMaxLifetime = 24 * time.Hour
)

var (
	ErrMissing     = errors.New("init data is empty")
	ErrMalformed   = errors.New("init data is malformed")
	ErrBadHash     = errors.New("init data signature mismatch")
	ErrExpired     = errors.New("init data is too old")
	ErrMissingUser = errors.New("init data carries no user")
)

// WebAppUser is the `user` object embedded in init data.
type WebAppUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// DisplayName joins first and last name.
func (u WebAppUser) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// InitData is a verified launch credential.
type InitData struct {
	User       WebAppUser
	AuthDate   time.Time
	StartParam string
	QueryID    string
}

// InviteCode extracts the code from a `invite_<code>` start parameter.
func (d InitData) InviteCode() (string, bool) {
	return ParseInviteStartParam(d.StartParam)
}

// ParseInviteStartParam accepts "invite_<code>" deep-link payloads.
func ParseInviteStartParam(param string) (string, bool) {
	code, ok := strings.CutPrefix(strings.TrimSpace(param), invitePrefix)
	if !ok || code == "" {
		return "", false
	}
	return code, true
}

// Validator checks init data signatures for one bot.
type Validator struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewValidator(botToken string, maxAge time.Duration) *Validator {
	if maxAge <= 0 {
		maxAge = defaultMaxLifetime
	}
	return &Validator{
		secret: util.HmacSHA256([]byte(webAppDataKey), botToken),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Validate parses raw init data and verifies hash and freshness.
func (v *Validator) Validate(raw string) (*InitData, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMissing
	}

	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, fmt.Errorf("%w: hash missing", ErrMalformed)
	}

	expected := util.HmacSHA256Hex(v.secret, DataCheckString(values))
	if !util.ConstantTimeEqual(expected, strings.ToLower(hash)) {
		return nil, ErrBadHash
	}

	authUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: auth_date", ErrMalformed)
	}
	authDate := time.Unix(authUnix, 0)
	if v.now().Sub(authDate) > v.maxAge {
		return nil, ErrExpired
	}

	var user WebAppUser
	if rawUser := values.Get("user"); rawUser != "" {
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			return nil, fmt.Errorf("%w: user", ErrMalformed)
		}
	}
	if user.ID == 0 {
		return nil, ErrMissingUser
	}

	return &InitData{
		User:       user,
		AuthDate:   authDate,
		StartParam: values.Get(startParamKey),
		QueryID:    values.Get("query_id"),
	}, nil
}

// DataCheckString is every key except hash, sorted, as key=value lines.
func DataCheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + values.Get(k)
	}
	return strings.Join(lines, "\n")
}

// Sign produces a valid init data string for the given fields. Used by tests
// and local tooling that need to impersonate the Telegram client.
func Sign(botToken string, values url.Values) string {
	secret := util.HmacSHA256([]byte(webAppDataKey), botToken)
	signed := url.Values{}
	for k, v := range values {
		signed[k] = v
	}
	signed.Set("hash", util.HmacSHA256Hex(secret, DataCheckString(values)))
	return signed.Encode()
}
