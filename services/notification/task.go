package notification

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// HandleDispatch consumes queued events. Delivery fan-out (email, push,
// webhooks) lives in a downstream system; this handler acknowledges and logs
// so undeliverable events are visible.
func HandleDispatch(ctx context.Context, t *asynq.Task) error {
	var event Event
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return err
	}

	zap.L().Info("notification event dispatched",
		zap.String("event_type", event.Type),
		zap.String("creator_id", event.CreatorID),
	)
	return nil
}
