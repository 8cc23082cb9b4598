package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// A lease is the exclusive, expiring right of one crop session to edit one
// image target. Holders are identified by a token; only the holder can
// release or extend.

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type LeaseRepository struct {
	client *redis.Client
}

func NewLeaseRepository(client *redis.Client) *LeaseRepository {
	return &LeaseRepository{client: client}
}

func (r *LeaseRepository) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, "lease:"+key, token, ttl).Result()
}

func (r *LeaseRepository) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, r.client, []string{"lease:" + key}, token).Err()
}

func (r *LeaseRepository) Refresh(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	n, err := refreshScript.Run(ctx, r.client, []string{"lease:" + key}, token, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MemoryLeaseRepository is the single-node lease store used when redis is
// off.
type MemoryLeaseRepository struct {
	mu     sync.Mutex
	leases map[string]memoryLease
	now    func() time.Time
}

type memoryLease struct {
	token   string
	expires time.Time
}

func NewMemoryLeaseRepository() *MemoryLeaseRepository {
	return &MemoryLeaseRepository{leases: make(map[string]memoryLease), now: time.Now}
}

func (r *MemoryLeaseRepository) Acquire(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if l, ok := r.leases[key]; ok && now.Before(l.expires) {
		return false, nil
	}
	r.leases[key] = memoryLease{token: token, expires: now.Add(ttl)}
	return true, nil
}

func (r *MemoryLeaseRepository) Release(_ context.Context, key, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.leases[key]; ok && l.token == token {
		delete(r.leases, key)
	}
	return nil
}

func (r *MemoryLeaseRepository) Refresh(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	l, ok := r.leases[key]
	if !ok || l.token != token || !now.Before(l.expires) {
		return false, nil
	}
	l.expires = now.Add(ttl)
	r.leases[key] = l
	return true, nil
}
