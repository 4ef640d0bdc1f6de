package amqp

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MutationEvent announces a write the REST backend confirmed. It carries
// identifiers only; consumers fetch the record if they need it.
type MutationEvent struct {
	EventID   string    `json:"event_id"`
	Resource  string    `json:"resource"`
	Action    string    `json:"action"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMutationEvent stamps a new event with a random id and the current time.
func NewMutationEvent(resource, action, id string) *MutationEvent {
	return &MutationEvent{
		EventID:   uuid.NewString(),
		Resource:  resource,
		Action:    action,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// RoutingKey is "<entity>.<action>", e.g. "transaction.created".
func (m *MutationEvent) RoutingKey() string {
	return RoutingKey(m.Resource, m.Action)
}

// RoutingKey builds the routing key for a resource and action. Resource
// names are plural; keys use the singular entity name.
func RoutingKey(resource, action string) string {
	return strings.TrimSuffix(resource, "s") + "." + action
}

// ToJSON converts the event to JSON bytes
func (m *MutationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MutationEventFromJSON decodes an event from JSON bytes
func MutationEventFromJSON(data []byte) (*MutationEvent, error) {
	var msg MutationEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
