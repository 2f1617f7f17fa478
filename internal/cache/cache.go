package cache

import (
	"context"
	"time"

	"github.com/trazzini/smstrack/internal/model"
)

type StatusCache interface {
	StoreStatus(ctx context.Context, messageID string, status model.Status, seenAt time.Time) error
}
