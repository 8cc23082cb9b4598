package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeExpirer struct {
	mu    sync.Mutex
	calls []time.Time
	ret   int
}

func (f *fakeExpirer) ExpireIdle(_ context.Context, now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.ret
}

func (f *fakeExpirer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSessionJanitor_Sweep(t *testing.T) {
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	expirer := &fakeExpirer{ret: 3}
	janitor := NewSessionJanitor(expirer, time.Minute)
	janitor.now = func() time.Time { return at }

	assert.Equal(t, 3, janitor.sweep(context.Background()))
	assert.Equal(t, []time.Time{at}, expirer.calls)
}

func TestSessionJanitor_StartStops(t *testing.T) {
	expirer := &fakeExpirer{}
	janitor := NewSessionJanitor(expirer, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		janitor.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return expirer.count() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
