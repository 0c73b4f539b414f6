package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

const (
	eventTypeOrderConfirmation = "order.confirmation"
	defaultPublishTimeout      = 10 * time.Second
)

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// PubSubDispatcher hands confirmations to the mail worker through a Pub/Sub topic.
type PubSubDispatcher struct {
	pub publisher
	now func() time.Time
}

// NewPubSubDispatcher wraps a Pub/Sub publisher.
func NewPubSubDispatcher(pub *gcppubsub.Publisher) (*PubSubDispatcher, error) {
	if pub == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &PubSubDispatcher{pub: &gcpPublisher{Publisher: pub}, now: time.Now}, nil
}

type envelope struct {
	EventID    string       `json:"event_id"`
	EventType  string       `json:"event_type"`
	OccurredAt time.Time    `json:"occurred_at"`
	Data       Confirmation `json:"data"`
}

// SendOrderConfirmation publishes msg and waits for the server ack.
func (d *PubSubDispatcher) SendOrderConfirmation(ctx context.Context, msg Confirmation) error {
	env := envelope{
		EventID:    uuid.NewString(),
		EventType:  eventTypeOrderConfirmation,
		OccurredAt: d.now().UTC(),
		Data:       msg,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode confirmation: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := d.pub.Publish(publishCtx, &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_id":     env.EventID,
			"event_type":   env.EventType,
			"order_number": strconv.FormatInt(msg.OrderNumber, 10),
			"lang":         languageTag(msg).String(),
		},
	})
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish confirmation: %w", err)
	}
	return nil
}

// languageTag maps the storefront language to a BCP 47 tag; unknown values fall back to Arabic.
func languageTag(msg Confirmation) language.Tag {
	tag, err := language.Parse(string(msg.Language))
	if err != nil || tag == language.Und {
		return language.Arabic
	}
	return tag
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
