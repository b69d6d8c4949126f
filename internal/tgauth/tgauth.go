// Package tgauth validates the initData string that Telegram passes to Mini
// Apps.
//
// See https://core.telegram.org/bots/webapps#validating-data-received-via-the-mini-app.
package tgauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmpty       = errors.New("tgauth: empty init data")
	ErrMalformed   = errors.New("tgauth: malformed init data")
	ErrMissingHash = errors.New("tgauth: no hash present in init data")
	ErrInvalidHash = errors.New("tgauth: hash is not valid")
	ErrExpired     = errors.New("tgauth: init data expired")
	ErrNoUser      = errors.New("tgauth: init data has no user")
)

// User is the Telegram user embedded in initData.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// InitData is validated Mini App launch data.
type InitData struct {
	User       User
	AuthDate   time.Time
	QueryID    string
	StartParam string
}

// UserID returns the user id as a decimal string.
func (d *InitData) UserID() string {
	return strconv.FormatInt(d.User.ID, 10)
}

// Validator checks initData signatures for one bot.
type Validator struct {
	// Token is the Telegram bot token.
	Token string
	// MaxAge limits how old auth_date may be. Zero disables the check.
	MaxAge time.Duration
	// Now overrides time.Now in tests.
	Now func() time.Time
}

// Validate parses raw initData, verifies its hash and freshness and returns
// the embedded user.
func (v *Validator) Validate(raw string) (*InitData, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmpty
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrMissingHash
	}
	values.Del("hash")

	if !v.validHash(DataCheckString(values), hash) {
		return nil, ErrInvalidHash
	}

	authUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad auth_date", ErrMalformed)
	}
	data := &InitData{
		AuthDate:   time.Unix(authUnix, 0),
		QueryID:    values.Get("query_id"),
		StartParam: values.Get("start_param"),
	}
	if v.MaxAge > 0 && v.now().Sub(data.AuthDate) > v.MaxAge {
		return nil, ErrExpired
	}

	userJSON := values.Get("user")
	if userJSON == "" {
		return nil, ErrNoUser
	}
	if err := json.Unmarshal([]byte(userJSON), &data.User); err != nil {
		return nil, fmt.Errorf("%w: bad user: %v", ErrMalformed, err)
	}
	if data.User.ID == 0 {
		return nil, ErrNoUser
	}
	return data, nil
}

// DataCheckString joins the fields sorted by key as key=value lines.
func DataCheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		sb.WriteString(k + "=" + values.Get(k))
		// Don't append newline on last key.
		if i+1 != len(keys) {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Sign computes the initData hash of a data-check string.
func Sign(token, checkString string) string {
	// The secret key is the HMAC of the token keyed with "WebAppData".
	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(token))

	hm := hmac.New(sha256.New, secret.Sum(nil))
	hm.Write([]byte(checkString))
	return hex.EncodeToString(hm.Sum(nil))
}

func (v *Validator) validHash(checkString, hash string) bool {
	want := Sign(v.Token, checkString)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(hash)))
}

func (v *Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
