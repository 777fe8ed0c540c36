package webhook

import (
	"encoding/json"

	"activity-guard/internal/common/errors"
	"activity-guard/internal/secrets"
)

// Aspect types the platform delivers.
const (
	AspectCreate = "create"
	AspectUpdate = "update"
	AspectDelete = "delete"
)

// Event is one push notification from the platform. Ids arrive as JSON
// numbers on the wire.
type Event struct {
	AspectType     string                 `json:"aspect_type"`
	ObjectType     string                 `json:"object_type"`
	ObjectID       int64                  `json:"object_id"`
	OwnerID        int64                  `json:"owner_id"`
	SubscriptionID int64                  `json:"subscription_id"`
	EventTime      int64                  `json:"event_time"`
	Updates        map[string]interface{} `json:"updates,omitempty"`
}

// ParseEvent decodes and validates a webhook body.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, errors.ValidationError("invalid webhook payload: " + err.Error())
	}

	if event.ObjectID == 0 {
		return nil, errors.ValidationError("webhook payload missing object_id")
	}
	if event.OwnerID <= 0 {
		return nil, errors.ValidationError("webhook payload missing owner_id")
	}

	return &event, nil
}

// CanonicalOwnerID returns the owner id in store-key form.
func (e *Event) CanonicalOwnerID() string {
	return secrets.OwnerIDFromInt(e.OwnerID)
}
