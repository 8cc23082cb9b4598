package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ds124wfegd/linkhub/config"
	"github.com/ds124wfegd/linkhub/internal/crop"
	"github.com/ds124wfegd/linkhub/internal/entity"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const leaseReleaseTimeout = 5 * time.Second

type cropService struct {
	kinds    crop.Kinds
	bounds   crop.ScaleBounds
	policy   crop.ScalePolicy
	ttl      time.Duration
	leaseTTL time.Duration

	images   ImageService
	uploader crop.Uploader
	leases   LeaseStore

	mu       sync.RWMutex
	sessions map[string]*openSession
}

type openSession struct {
	*crop.Session
	owner string
}

func NewCropService(cfg config.CropConfig, images ImageService, uploader crop.Uploader, leases LeaseStore) (CropService, error) {
	kinds, err := crop.KindsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	policy, err := crop.ParseScalePolicy(cfg.ScalePolicy)
	if err != nil {
		return nil, err
	}

	return &cropService{
		kinds:  kinds,
		bounds: crop.ScaleBounds{Min: cfg.MinScale, Max: cfg.MaxScale},
		policy: policy,
		ttl:    cfg.SessionTTL,
		// outlives the session by one janitor sweep so the janitor, not
		// redis, ends an abandoned session
		leaseTTL: cfg.SessionTTL + cfg.JanitorInterval,
		images:   images,
		uploader: uploader,
		leases:   leases,
		sessions: make(map[string]*openSession),
	}, nil
}

func (s *cropService) Kinds() []crop.Kind {
	return s.kinds.Sorted()
}

func (s *cropService) Kind(name string) (crop.Kind, error) {
	kind, ok := s.kinds.Get(name)
	if !ok {
		return crop.Kind{}, entity.ErrUnknownKind
	}
	return kind, nil
}

// Open starts a session for one image slot and captures its first image.
// Only one session per slot may be open across all instances.
func (s *cropService) Open(ctx context.Context, email, kindName, targetID string, file crop.File) (crop.Snapshot, error) {
	kind, err := s.Kind(kindName)
	if err != nil {
		return crop.Snapshot{}, err
	}
	ref, err := s.images.ResolveRef(ctx, email, kind.Target, targetID)
	if err != nil {
		return crop.Snapshot{}, err
	}

	id := uuid.NewString()
	key := leaseKey(ref)
	ok, err := s.leases.Acquire(ctx, key, id, s.leaseTTL)
	if err != nil {
		return crop.Snapshot{}, err
	}
	if !ok {
		return crop.Snapshot{}, entity.ErrTargetLocked
	}

	session := crop.NewSession(id, kind, ref, s.bounds, s.policy, func() {
		s.forget(id)
		ctx, cancel := context.WithTimeout(context.Background(), leaseReleaseTimeout)
		defer cancel()
		if err := s.leases.Release(ctx, key, id); err != nil {
			logrus.WithError(err).WithField("session_id", id).Warn("failed to release target lease")
		}
	})

	if err := session.Capture(file); err != nil {
		_ = session.Cancel()
		return crop.Snapshot{}, err
	}

	s.mu.Lock()
	s.sessions[id] = &openSession{Session: session, owner: normalizeEmail(email)}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"session_id": id,
		"kind":       kind.Name,
		"target":     key,
	}).Info("crop session opened")
	return session.Snapshot(), nil
}

func (s *cropService) Get(ctx context.Context, email, id string) (crop.Snapshot, error) {
	session, err := s.lookup(ctx, email, id)
	if err != nil {
		return crop.Snapshot{}, err
	}
	return session.Snapshot(), nil
}

func (s *cropService) Recapture(ctx context.Context, email, id string, file crop.File) (crop.Snapshot, error) {
	session, err := s.lookup(ctx, email, id)
	if err != nil {
		return crop.Snapshot{}, err
	}
	if err := session.Capture(file); err != nil {
		return crop.Snapshot{}, err
	}
	s.refresh(ctx, session)
	return session.Snapshot(), nil
}

func (s *cropService) Apply(ctx context.Context, email, id string, events []crop.Event) (crop.Snapshot, error) {
	session, err := s.lookup(ctx, email, id)
	if err != nil {
		return crop.Snapshot{}, err
	}
	snap, err := session.Apply(events...)
	if err != nil && !errors.Is(err, crop.ErrInvalidEvent) {
		return snap, err
	}
	// a rejected batch changes nothing but the editor is still live
	s.refresh(ctx, session)
	return snap, err
}

func (s *cropService) Preview(ctx context.Context, email, id string) ([]byte, crop.Kind, error) {
	session, err := s.lookup(ctx, email, id)
	if err != nil {
		return nil, crop.Kind{}, err
	}
	data, err := session.Preview()
	return data, session.Kind, err
}

// Publish runs detached from the request context: a client that disconnects
// mid-upload must not leave a hosted asset without its reference.
func (s *cropService) Publish(ctx context.Context, email, id string) (crop.PublishResult, error) {
	session, err := s.lookup(ctx, email, id)
	if err != nil {
		return crop.PublishResult{}, err
	}

	ctx = context.WithoutCancel(ctx)
	result, err := session.Publish(ctx, s.uploader, s.images)
	switch {
	case err == nil:
		s.images.Replaced(ctx, session.Ref, result.PreviousURL, result.Upload.URL, "")
		logrus.WithFields(logrus.Fields{
			"session_id": id,
			"url":        result.Upload.URL,
		}).Info("crop published")
	case errors.Is(err, crop.ErrSessionClosed) && result.Upload.URL != "":
		// cancelled while uploading: nothing references the new asset
		s.images.Replaced(ctx, session.Ref, result.Upload.URL, "", result.Upload.PublicID)
	}
	return result, err
}

func (s *cropService) Cancel(ctx context.Context, email, id string) error {
	session, err := s.lookup(ctx, email, id)
	if err != nil {
		return err
	}
	return session.Cancel()
}

// ExpireIdle cancels sessions untouched for the session TTL.
func (s *cropService) ExpireIdle(ctx context.Context, now time.Time) int {
	expired := 0
	for _, session := range s.snapshot() {
		if !session.Idle(now, s.ttl) {
			continue
		}
		if err := session.Cancel(); err == nil {
			expired++
			logrus.WithField("session_id", session.ID).Info("idle crop session expired")
		}
	}
	return expired
}

// CancelAll is called on shutdown so leases do not outlive the process.
func (s *cropService) CancelAll(ctx context.Context) int {
	cancelled := 0
	for _, session := range s.snapshot() {
		if session.Cancel() == nil {
			cancelled++
		}
	}
	return cancelled
}

// lookup hides other users' sessions behind ErrSessionNotFound.
func (s *cropService) lookup(_ context.Context, email, id string) (*crop.Session, error) {
	s.mu.RLock()
	open, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || open.owner != normalizeEmail(email) {
		return nil, entity.ErrSessionNotFound
	}
	return open.Session, nil
}

func (s *cropService) refresh(ctx context.Context, session *crop.Session) {
	ok, err := s.leases.Refresh(ctx, leaseKey(session.Ref), session.ID, s.leaseTTL)
	if err != nil || !ok {
		logrus.WithError(err).WithField("session_id", session.ID).Warn("failed to refresh target lease")
	}
}

func (s *cropService) forget(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *cropService) snapshot() []*crop.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*crop.Session, 0, len(s.sessions))
	for _, open := range s.sessions {
		out = append(out, open.Session)
	}
	return out
}

func leaseKey(ref crop.Ref) string {
	return string(ref.Target) + ":" + ref.ID
}
