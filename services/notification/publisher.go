package notification

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"liveshop-creatorplane/pkg/taskname"
)

const (
	EventShowStarted     = "show.started"
	EventShowEnded       = "show.ended"
	EventPayoutProcessed = "payout.processed"
)

// Event is handed to the notification subsystem; this engine only emits,
// delivery is external.
type Event struct {
	Type      string         `json:"type"`
	CreatorID string         `json:"creator_id"`
	Payload   map[string]any `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

var Module = fx.Module("notification",
	fx.Provide(NewAsynqPublisher),
)

type asynqPublisher struct {
	client *asynq.Client
}

func NewAsynqPublisher(client *asynq.Client) Publisher {
	return &asynqPublisher{client: client}
}

func (p *asynqPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	task := asynq.NewTask(taskname.NotificationDispatch, payload)
	if _, err := p.client.EnqueueContext(ctx, task, asynq.Queue("default")); err != nil {
		zap.L().Error("failed to enqueue notification event",
			zap.String("event_type", event.Type),
			zap.String("creator_id", event.CreatorID),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// Recorder collects published events in memory; used by tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
