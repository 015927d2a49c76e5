package chatclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

// DefaultInboxInterval is how often the admin conversation list is refreshed.
const DefaultInboxInterval = 5 * time.Second

// WatchConversations fetches the admin conversation list immediately and then
// every interval, handing each result to fn. Fetches run one after another on
// the calling goroutine. It returns ctx.Err() on cancellation, or the API
// error straight away when the token is rejected; other failures are logged
// and retried on the next tick.
func (c *Client) WatchConversations(ctx context.Context, interval time.Duration, logger zerolog.Logger, fn func([]domain.Conversation)) error {
	if interval <= 0 {
		interval = DefaultInboxInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		convs, err := c.ListConversations(ctx)
		var apiErr *APIError
		switch {
		case err == nil:
			fn(convs)
		case errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden):
			return err
		case ctx.Err() == nil:
			logger.Warn().Err(err).Msg("conversation list refresh failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
