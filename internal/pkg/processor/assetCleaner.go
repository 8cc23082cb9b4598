package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ds124wfegd/linkhub/internal/entity"
	"github.com/sirupsen/logrus"
)

// AssetDeleter removes hosted images. Both uploaders implement it.
type AssetDeleter interface {
	Delete(ctx context.Context, publicID string) error
	PublicID(url string) (string, bool)
}

// AssetCleaner consumes image.replaced events and deletes images nothing
// references any more.
type AssetCleaner struct {
	deleter AssetDeleter
	// delay is measured from the event timestamp; zero when the broker
	// already delays delivery
	delay time.Duration
	now   func() time.Time
}

func NewAssetCleaner(deleter AssetDeleter, delay time.Duration) *AssetCleaner {
	return &AssetCleaner{deleter: deleter, delay: delay, now: time.Now}
}

// Handle processes one message body. A returned error means the message
// should be redelivered.
func (c *AssetCleaner) Handle(ctx context.Context, body []byte) error {
	var event entity.ImageReplaced
	if err := json.Unmarshal(body, &event); err != nil {
		// битое сообщение повторять бессмысленно
		logrus.WithError(err).Warn("skipping malformed image event")
		return nil
	}
	if event.Type != "" && event.Type != entity.ImageReplacedEvent {
		return nil
	}

	log := logrus.WithFields(logrus.Fields{
		"target":    event.Target,
		"target_id": event.TargetID,
		"old_url":   event.OldURL,
	})

	publicID := event.PublicID
	if publicID == "" {
		if event.OldURL == "" {
			return nil
		}
		id, ok := c.deleter.PublicID(event.OldURL)
		if !ok {
			// картинка не наша (внешний URL), удалять нечего
			log.Debug("old image is not hosted by us, skipping")
			return nil
		}
		publicID = id
	}

	if err := c.wait(ctx, event.Timestamp); err != nil {
		return err
	}

	if err := c.deleter.Delete(ctx, publicID); err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", publicID, err)
	}

	log.WithField("public_id", publicID).Info("superseded image deleted")
	return nil
}

func (c *AssetCleaner) wait(ctx context.Context, since time.Time) error {
	if c.delay <= 0 || since.IsZero() {
		return nil
	}
	remaining := since.Add(c.delay).Sub(c.now())
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
