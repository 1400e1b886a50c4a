// Package events defines the payloads marginly publishes on Pub/Sub.
package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is bumped whenever the envelope layout changes.
const EnvelopeVersion = 1

// TypeSyncCompleted is emitted after a store sync pass persists its results.
const TypeSyncCompleted = "store.sync.completed"

// Message attribute keys.
const (
	AttrEventID   = "event_id"
	AttrEventType = "event_type"
	AttrStoreID   = "store_id"
)

// Envelope is the stable wrapper around every published payload.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// SyncCompleted is the payload of TypeSyncCompleted.
type SyncCompleted struct {
	StoreID        uuid.UUID `json:"storeId"`
	OwnerID        uuid.UUID `json:"ownerId"`
	Trigger        string    `json:"trigger"`
	Since          time.Time `json:"since"`
	SyncedAt       time.Time `json:"syncedAt"`
	ProcessedCount int       `json:"processedCount"`
	TotalOrders    int       `json:"totalOrders"`
}

// NewEnvelope wraps data with a fresh event id.
func NewEnvelope(eventType string, data any, occurredAt time.Time) (Envelope, error) {
	if strings.TrimSpace(eventType) == "" {
		return Envelope{}, errors.New("event type is required")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		Version:    EnvelopeVersion,
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: occurredAt.UTC(),
		Data:       raw,
	}, nil
}

// ParseEnvelope decodes and validates a published message body. Attributes
// fill in the event id and type for producers that only set them there.
func ParseEnvelope(body []byte, attrs map[string]string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if strings.TrimSpace(env.EventID) == "" {
		env.EventID = strings.TrimSpace(attrs[AttrEventID])
	}
	if strings.TrimSpace(env.EventType) == "" {
		env.EventType = strings.TrimSpace(attrs[AttrEventType])
	}
	if env.EventID == "" {
		return Envelope{}, errors.New("event_id missing")
	}
	if _, err := uuid.Parse(env.EventID); err != nil {
		return Envelope{}, fmt.Errorf("event_id: %w", err)
	}
	if env.EventType == "" {
		return Envelope{}, errors.New("event_type missing")
	}
	if env.Version > EnvelopeVersion {
		return Envelope{}, fmt.Errorf("unsupported envelope version %d", env.Version)
	}
	if len(bytes.TrimSpace(env.Data)) == 0 {
		return Envelope{}, errors.New("data missing")
	}
	env.OccurredAt = env.OccurredAt.UTC()
	return env, nil
}

// Attributes are the message attributes published alongside the envelope.
func (e Envelope) Attributes(storeID uuid.UUID) map[string]string {
	attrs := map[string]string{
		AttrEventID:   e.EventID,
		AttrEventType: e.EventType,
	}
	if storeID != uuid.Nil {
		attrs[AttrStoreID] = storeID.String()
	}
	return attrs
}

// DecodeSyncCompleted unmarshals a TypeSyncCompleted payload.
func (e Envelope) DecodeSyncCompleted() (SyncCompleted, error) {
	if e.EventType != TypeSyncCompleted {
		return SyncCompleted{}, fmt.Errorf("event type %q is not %s", e.EventType, TypeSyncCompleted)
	}
	var payload SyncCompleted
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return SyncCompleted{}, fmt.Errorf("decode sync completed: %w", err)
	}
	if payload.StoreID == uuid.Nil {
		return SyncCompleted{}, errors.New("storeId missing")
	}
	if payload.SyncedAt.IsZero() {
		return SyncCompleted{}, errors.New("syncedAt missing")
	}
	return payload, nil
}
