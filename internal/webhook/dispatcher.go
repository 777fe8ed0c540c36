// Package webhook verifies the subscription handshake and applies the
// visibility policy to incoming activity events.
package webhook

import (
	"context"

	"activity-guard/internal/common/errors"
	"activity-guard/internal/common/logging"
	"activity-guard/internal/secrets"
	"activity-guard/internal/strava"
)

// HideDistanceThreshold is the strict upper bound, in meters, below which a
// ride is hidden from the public feed.
const HideDistanceThreshold = 5000.0

// hideActivityType is the only activity type the policy acts on. Runs,
// walks and virtual rides pass through untouched.
const hideActivityType = "Ride"

// TokenSource resolves a usable access token for an owner.
type TokenSource interface {
	GetValid(ctx context.Context, ownerID string) (secrets.TokenRecord, error)
}

// ActivityAPI is the activity surface the dispatcher needs from the
// platform client.
type ActivityAPI interface {
	GetActivity(ctx context.Context, accessToken string, activityID int64) (*strava.Activity, error)
	HideActivity(ctx context.Context, accessToken string, activityID int64) error
}

// Dispatcher handles the two webhook surfaces: the GET verification
// handshake and POST event delivery.
type Dispatcher struct {
	verifyToken string
	tokens      TokenSource
	platform    ActivityAPI
	logger      logging.Logger
}

func NewDispatcher(verifyToken string, tokens TokenSource, platform ActivityAPI, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		verifyToken: verifyToken,
		tokens:      tokens,
		platform:    platform,
		logger:      logger,
	}
}

// VerifySubscription checks the handshake parameters and returns the
// challenge to echo back. The mode must be "subscribe" and the token must
// match the configured one.
func (d *Dispatcher) VerifySubscription(mode, token, challenge string) (string, error) {
	if mode != "subscribe" {
		return "", errors.VerificationError("unexpected subscription mode: " + mode)
	}
	if token != d.verifyToken {
		return "", errors.VerificationError("verify token mismatch")
	}
	if challenge == "" {
		return "", errors.VerificationError("missing challenge")
	}

	d.logger.Info("webhook subscription verified")
	return challenge, nil
}

// HandleEvent applies the visibility policy to one event. Aspects other
// than create and update are acknowledged without any API call, as are
// non-activity objects. Errors mean the event could not be processed and
// the caller should signal failure so the platform retries.
func (d *Dispatcher) HandleEvent(ctx context.Context, event *Event) error {
	fields := []logging.Field{
		{Key: "aspect_type", Value: event.AspectType},
		{Key: "object_type", Value: event.ObjectType},
		{Key: "object_id", Value: event.ObjectID},
		{Key: "owner_id", Value: event.OwnerID},
	}

	if event.ObjectType != "" && event.ObjectType != "activity" {
		d.logger.Debug("ignoring non-activity event", fields...)
		return nil
	}

	switch event.AspectType {
	case AspectCreate, AspectUpdate:
	default:
		d.logger.Debug("ignoring event aspect", fields...)
		return nil
	}

	ownerID := event.CanonicalOwnerID()

	record, err := d.tokens.GetValid(ctx, ownerID)
	if err != nil {
		d.logger.Error("failed to resolve token for event owner", err, fields...)
		return err
	}

	activity, err := d.platform.GetActivity(ctx, record.AccessToken, event.ObjectID)
	if err != nil {
		d.logger.Error("failed to fetch activity for event", err, fields...)
		return err
	}

	if !ShouldHide(activity) {
		d.logger.Info("activity left visible", append(fields,
			logging.Field{Key: "distance", Value: activity.Distance},
			logging.Field{Key: "type", Value: activity.Type})...)
		return nil
	}

	if err := d.platform.HideActivity(ctx, record.AccessToken, event.ObjectID); err != nil {
		d.logger.Error("failed to hide activity", err, fields...)
		return err
	}

	d.logger.Info("activity hidden from public feed", append(fields,
		logging.Field{Key: "distance", Value: activity.Distance})...)
	return nil
}

// ShouldHide is the policy rule: rides strictly shorter than the threshold
// are hidden. Distance is compared in meters.
func ShouldHide(activity *strava.Activity) bool {
	return activity.Distance < HideDistanceThreshold && activity.Type == hideActivityType
}
