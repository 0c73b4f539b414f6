package notifications

import (
	"context"

	"github.com/angelmondragon/storefront/pkg/logger"
)

// LogDispatcher records confirmations in the service log. Used when no Pub/Sub project is configured.
type LogDispatcher struct {
	logg *logger.Logger
}

func NewLogDispatcher(logg *logger.Logger) *LogDispatcher {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogDispatcher{logg: logg}
}

func (d *LogDispatcher) SendOrderConfirmation(ctx context.Context, msg Confirmation) error {
	ctx = d.logg.WithOrderNumber(ctx, msg.OrderNumber)
	ctx = d.logg.WithFields(ctx, map[string]any{
		"language": msg.Language,
		"items":    len(msg.Items),
		"total":    msg.Totals.Total.StringFixed(3),
	})
	d.logg.Info(ctx, "notification.order_confirmation.logged")
	return nil
}
