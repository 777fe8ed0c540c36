// Package tokens owns the credential lifecycle: code exchange, refresh with
// rotation, and handing out access tokens for API calls.
package tokens

import (
	"context"
	"time"

	"activity-guard/internal/common/errors"
	"activity-guard/internal/common/logging"
	"activity-guard/internal/secrets"
	"activity-guard/internal/strava"
)

// Exchanger is the token-endpoint surface the manager needs from the
// platform client.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code string) (*strava.TokenExchange, error)
	RefreshToken(ctx context.Context, refreshToken string) (*strava.TokenExchange, error)
}

// Manager persists token records keyed by athlete id and keeps them fresh.
type Manager struct {
	store    secrets.Store
	platform Exchanger
	logger   logging.Logger
	now      func() time.Time
}

func NewManager(store secrets.Store, platform Exchanger, logger logging.Logger) *Manager {
	return &Manager{
		store:    store,
		platform: platform,
		logger:   logger,
		now:      time.Now,
	}
}

// ExchangeCode trades an authorization code for a token record and persists
// it under the athlete's canonical owner id. Re-authorizing simply
// overwrites the previous record.
func (m *Manager) ExchangeCode(ctx context.Context, code string) (string, secrets.TokenRecord, error) {
	exchange, err := m.platform.ExchangeCode(ctx, code)
	if err != nil {
		return "", secrets.TokenRecord{}, errors.ExchangeError("authorization code exchange failed", err)
	}

	ownerID := secrets.OwnerIDFromInt(exchange.AthleteID)
	record := secrets.TokenRecord{
		AccessToken:  exchange.AccessToken,
		RefreshToken: exchange.RefreshToken,
		ExpiresAt:    exchange.ExpiresAt,
	}

	if err := m.store.Put(ctx, ownerID, record); err != nil {
		return "", secrets.TokenRecord{}, err
	}

	m.logger.Info("token record stored", logging.Field{Key: "owner_id", Value: ownerID},
		logging.Field{Key: "expires_at", Value: record.ExpiresAt})

	return ownerID, record, nil
}

// Refresh performs a refresh-token grant for one owner and replaces the
// stored record with the rotated pair. Callers get the new record back.
func (m *Manager) Refresh(ctx context.Context, ownerID string) (secrets.TokenRecord, error) {
	record, err := m.store.Get(ctx, ownerID)
	if err != nil {
		return secrets.TokenRecord{}, err
	}

	exchange, err := m.platform.RefreshToken(ctx, record.RefreshToken)
	if err != nil {
		return secrets.TokenRecord{}, errors.RefreshError("token refresh failed", err).
			WithContext("owner_id", ownerID)
	}

	// The platform rotates refresh tokens; the old pair is dead once this
	// response arrives, so the whole record is replaced.
	updated := secrets.TokenRecord{
		AccessToken:  exchange.AccessToken,
		RefreshToken: exchange.RefreshToken,
		ExpiresAt:    exchange.ExpiresAt,
	}

	if err := m.store.Put(ctx, ownerID, updated); err != nil {
		return secrets.TokenRecord{}, err
	}

	m.logger.Info("token record refreshed", logging.Field{Key: "owner_id", Value: ownerID},
		logging.Field{Key: "expires_at", Value: updated.ExpiresAt})

	return updated, nil
}

// GetValid returns an access token usable right now for the owner,
// refreshing first when the stored record is inside the expiry margin.
func (m *Manager) GetValid(ctx context.Context, ownerID string) (secrets.TokenRecord, error) {
	record, err := m.store.Get(ctx, ownerID)
	if err != nil {
		return secrets.TokenRecord{}, err
	}

	if !record.NearExpiry(m.now()) {
		return record, nil
	}

	return m.Refresh(ctx, ownerID)
}

// RefreshAllNearExpiry sweeps every stored record and refreshes the ones
// inside the expiry margin. A failure for one owner is logged and does not
// stop the sweep; the first error is returned after all owners are visited.
func (m *Manager) RefreshAllNearExpiry(ctx context.Context) error {
	ownerIDs, err := m.store.ListOwnerIDs(ctx)
	if err != nil {
		return err
	}

	var firstErr error
	refreshed := 0
	for _, ownerID := range ownerIDs {
		record, err := m.store.Get(ctx, ownerID)
		if err != nil {
			m.logger.Error("failed to load token record during sweep", err,
				logging.Field{Key: "owner_id", Value: ownerID})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if !record.NearExpiry(m.now()) {
			continue
		}

		if _, err := m.Refresh(ctx, ownerID); err != nil {
			m.logger.Error("failed to refresh token record during sweep", err,
				logging.Field{Key: "owner_id", Value: ownerID})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		refreshed++
	}

	m.logger.Info("refresh sweep complete",
		logging.Field{Key: "owners", Value: len(ownerIDs)},
		logging.Field{Key: "refreshed", Value: refreshed})

	return firstErr
}
