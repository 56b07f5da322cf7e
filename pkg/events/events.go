package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sfhouse/intake/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	// Client events
	ClientCreated    = "client.created"
	ClientUpdated    = "client.updated"
	ClientCheckedIn  = "client.checked_in"
	ClientCheckedOut = "client.checked_out"
	ClientBanned     = "client.banned"
	ClientUnbanned   = "client.unbanned"

	// Visit events
	VisitCreated = "visit.created"

	// Staff events
	StaffRegistered = "staff.registered"
	StaffVerified   = "staff.verified"

	// Notification events
	NotifySend = "notify.send"
)

// Event payloads
type ClientCreatedEvent struct {
	ClientID  string    `json:"client_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

type ClientUpdatedEvent struct {
	ClientID  string    `json:"client_id"`
	Changes   []string  `json:"changes"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ClientCheckedInEvent struct {
	ClientID    string    `json:"client_id"`
	VisitID     string    `json:"visit_id"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

type ClientCheckedOutEvent struct {
	ClientID     string    `json:"client_id"`
	CheckedOutAt time.Time `json:"checked_out_at"`
}

type ClientBannedEvent struct {
	ClientID string    `json:"client_id"`
	Banned   bool      `json:"banned"`
	At       time.Time `json:"at"`
}

type VisitCreatedEvent struct {
	VisitID   string `json:"visit_id"`
	ClientID  string `json:"client_id"`
	Timestamp int64  `json:"timestamp"`
}

type StaffRegisteredEvent struct {
	StaffID int64  `json:"staff_id"`
	Email   string `json:"email"`
}

type NotificationEvent struct {
	Type      string                 `json:"type"`
	Recipient string                 `json:"recipient"`
	Subject   string                 `json:"subject"`
	Template  string                 `json:"template"`
	Data      map[string]interface{} `json:"data"`
}
