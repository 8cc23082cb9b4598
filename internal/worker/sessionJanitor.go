package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// SessionExpirer is the part of the crop service the janitor drives.
type SessionExpirer interface {
	ExpireIdle(ctx context.Context, now time.Time) int
}

// SessionJanitor periodically closes crop sessions the client abandoned, so
// their target leases are released.
type SessionJanitor struct {
	sessions SessionExpirer
	interval time.Duration
	now      func() time.Time
}

func NewSessionJanitor(sessions SessionExpirer, interval time.Duration) *SessionJanitor {
	return &SessionJanitor{
		sessions: sessions,
		interval: interval,
		now:      time.Now,
	}
}

func (w *SessionJanitor) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("Crop session janitor started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Crop session janitor stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep закрывает сессии, простаивающие дольше TTL
func (w *SessionJanitor) sweep(ctx context.Context) int {
	expired := w.sessions.ExpireIdle(ctx, w.now())
	if expired > 0 {
		logrus.Infof("Expired %d idle crop sessions", expired)
	}
	return expired
}
