package secrets

import (
	"strconv"
	"strings"
	"time"

	"activity-guard/internal/common/errors"
)

// RefreshMargin is the buffer before actual expiry at which a token is
// considered near expiry. Webhook processing and outbound calls have nonzero
// latency; refreshing exactly at expiry risks using an already-dead token
// mid-request.
const RefreshMargin = 300 * time.Second

// TokenRecord is the per-athlete token pair persisted by the secret store.
// Records are replaced wholesale on every refresh, never partially patched.
type TokenRecord struct {
	// AccessToken is the short-lived bearer credential for the Strava API
	AccessToken string `json:"access_token"`
	// RefreshToken is the longer-lived credential; it rotates on every use
	RefreshToken string `json:"refresh_token"`
	// ExpiresAt is the access token expiry as an absolute Unix timestamp in
	// seconds, exactly as reported by the most recent successful exchange
	ExpiresAt int64 `json:"expires_at"`
}

// NearExpiry reports whether the record should be refreshed at the given
// time: now >= expiresAt - RefreshMargin.
func (r TokenRecord) NearExpiry(now time.Time) bool {
	return now.Unix() >= r.ExpiresAt-int64(RefreshMargin.Seconds())
}

// IsZero reports whether the record carries no credentials.
func (r TokenRecord) IsZero() bool {
	return r.AccessToken == "" && r.RefreshToken == ""
}

// CanonicalOwnerID normalizes an athlete identifier to its canonical string
// form: the base-10 representation of the numeric id. Strava delivers the id
// as a JSON number in webhook payloads and as an integer in token responses;
// historically mixing the two representations as store keys lost records.
// Every store boundary applies this function.
func CanonicalOwnerID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.ValidationError("owner id is empty")
	}

	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id <= 0 {
		return "", errors.ValidationError("owner id must be a positive integer: " + raw)
	}

	return strconv.FormatInt(id, 10), nil
}

// OwnerIDFromInt returns the canonical string form of a numeric athlete id.
func OwnerIDFromInt(id int64) string {
	return strconv.FormatInt(id, 10)
}
