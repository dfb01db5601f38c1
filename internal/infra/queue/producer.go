package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DispatchPayload mirrors one dispatch outcome for external consumers.
type DispatchPayload struct {
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	ProspectID string    `json:"prospect_id,omitempty"`
	CampaignID string    `json:"campaign_id,omitempty"`
	Mailbox    string    `json:"mailbox,omitempty"`
	MessageID  string    `json:"message_id,omitempty"`
	At         time.Time `json:"at"`
}

type Producer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *Producer {
	return &Producer{Conn: conn, Ch: ch}
}

func (p *Producer) PublishDispatch(ctx context.Context, payload DispatchPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish dispatch event: %w", err)
	}

	return nil
}
