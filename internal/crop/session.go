package crop

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

type State string

const (
	StateEmpty      State = "empty"
	StateEditing    State = "editing"
	StatePublishing State = "publishing"
	StateDone       State = "done"
	StateCancelled  State = "cancelled"
)

func (s State) Closed() bool {
	return s == StateDone || s == StateCancelled
}

// Ref identifies the page or block slot a session writes its image into.
type Ref struct {
	Target Target `json:"target"`
	ID     string `json:"target_id"`
	UserID string `json:"-"`
}

// Asset is an encoded crop ready for upload.
type Asset struct {
	Data      []byte
	MediaType string
	Format    Format
	Folder    string
	Name      string
	Width     int
	Height    int
}

type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	Bytes    int    `json:"bytes"`
}

type Uploader interface {
	Upload(ctx context.Context, asset Asset) (UploadResult, error)
}

// Attacher writes a hosted URL into the referenced slot and reports the URL
// it replaced, if any.
type Attacher interface {
	SetImageReference(ctx context.Context, ref Ref, url string) (string, error)
}

type PublishResult struct {
	Upload      UploadResult `json:"upload"`
	PreviousURL string       `json:"previous_url,omitempty"`
}

type EventType string

const (
	EventDragStart EventType = "drag_start"
	EventDragMove  EventType = "drag_move"
	EventDragEnd   EventType = "drag_end"
	EventScale     EventType = "scale"
	EventReset     EventType = "reset"
)

func (t EventType) valid() bool {
	switch t {
	case EventDragStart, EventDragMove, EventDragEnd, EventScale, EventReset:
		return true
	}
	return false
}

// Event is one editor input. X and Y are frame coordinates, Value is the
// slider position for scale events.
type Event struct {
	Type  EventType `json:"type" binding:"required"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Value float64   `json:"value"`
}

type Snapshot struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	Ref          Ref        `json:"ref"`
	State        State      `json:"state"`
	Frame        Frame      `json:"frame"`
	Output       OutputSpec `json:"output"`
	ScalePolicy  string     `json:"scale_policy"`
	Viewport     Viewport   `json:"viewport"`
	Dragging     bool       `json:"dragging"`
	SourceWidth  int        `json:"source_width,omitempty"`
	SourceHeight int        `json:"source_height,omitempty"`
	Visible      *RectF     `json:"visible_region,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Session is one crop interaction for one image slot. Mutations are
// serialized; at most one publish runs at a time.
type Session struct {
	ID   string
	Kind Kind
	Ref  Ref

	mu        sync.Mutex
	state     State
	source    *SourceImage
	transform *Transform
	touchedAt time.Time

	publishing  atomic.Bool
	release     func()
	releaseOnce sync.Once

	log *logrus.Entry
}

// NewSession opens an empty session. release is called exactly once when the
// session completes, is cancelled or fails its first capture.
func NewSession(id string, kind Kind, ref Ref, bounds ScaleBounds, policy ScalePolicy, release func()) *Session {
	return &Session{
		ID:        id,
		Kind:      kind,
		Ref:       ref,
		state:     StateEmpty,
		transform: NewTransform(kind.Frame, bounds, policy),
		touchedAt: time.Now(),
		release:   release,
		log: logrus.WithFields(logrus.Fields{
			"session_id": id,
			"kind":       kind.Name,
			"target":     string(ref.Target) + ":" + ref.ID,
		}),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Capture replaces the source image. On any error the session keeps its
// previous image and viewport.
func (s *Session) Capture(f File) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	src, err := Capture(f, s.Kind.MaxBytes, s.Kind.MaxPixels)
	if err != nil {
		s.log.WithError(err).Debug("capture rejected")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Closed() {
		return ErrSessionClosed
	}
	if s.state == StatePublishing {
		return ErrPublishInProgress
	}

	s.source = src
	s.transform.Init(src.Width, src.Height)
	s.state = StateEditing
	s.touchedAt = time.Now()

	s.log.WithFields(logrus.Fields{
		"width":  src.Width,
		"height": src.Height,
		"scale":  s.transform.Viewport.Scale,
	}).Debug("image captured")
	return nil
}

// Apply runs editor events in order. Events arriving while a publish is in
// flight still move the live viewport; the publish renders its own snapshot.
func (s *Session) Apply(events ...Event) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Closed() {
		return Snapshot{}, ErrSessionClosed
	}
	if s.source == nil {
		return Snapshot{}, ErrNoImage
	}

	// a batch applies whole or not at all
	for i, e := range events {
		if !e.Type.valid() {
			return s.snapshotLocked(), fmt.Errorf("event %d: %w: %q", i, ErrInvalidEvent, e.Type)
		}
	}

	for _, e := range events {
		switch e.Type {
		case EventDragStart:
			s.transform.BeginDrag(Point{X: e.X, Y: e.Y})
		case EventDragMove:
			s.transform.MoveDrag(Point{X: e.X, Y: e.Y})
		case EventDragEnd:
			s.transform.EndDrag()
		case EventScale:
			s.transform.SetScale(e.Value)
		case EventReset:
			s.transform.Init(s.source.Width, s.source.Height)
		}
	}
	s.touchedAt = time.Now()

	return s.snapshotLocked(), nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:          s.ID,
		Kind:        s.Kind.Name,
		Ref:         s.Ref,
		State:       s.state,
		Frame:       s.Kind.Frame,
		Output:      s.Kind.Output,
		ScalePolicy: string(s.transform.Policy()),
		Viewport:    s.transform.Viewport,
		Dragging:    s.transform.Dragging(),
		UpdatedAt:   s.touchedAt,
	}
	if s.source != nil {
		snap.SourceWidth = s.source.Width
		snap.SourceHeight = s.source.Height
		if r, err := SourceRect(s.source.Width, s.source.Height, s.transform.Viewport, s.Kind.Frame); err == nil {
			snap.Visible = &r
		}
	}
	return snap
}

// Preview renders the current viewport without uploading.
func (s *Session) Preview() ([]byte, error) {
	src, v, err := s.frozen()
	if err != nil {
		return nil, err
	}
	return Render(src, v, s.Kind)
}

func (s *Session) frozen() (*SourceImage, Viewport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Closed() {
		return nil, Viewport{}, ErrSessionClosed
	}
	if s.source == nil {
		return nil, Viewport{}, ErrNoImage
	}
	return s.source, s.transform.Viewport, nil
}

// Publish renders the viewport as it is at call time, uploads it and
// attaches the hosted URL. A second call while one is pending fails with
// ErrPublishInProgress without reaching the uploader. Upload and attach
// failures return the session to editing with its viewport intact.
//
// If the session is cancelled while the upload runs, the hosted asset is
// returned alongside ErrSessionClosed so the caller can discard it.
func (s *Session) Publish(ctx context.Context, up Uploader, at Attacher) (PublishResult, error) {
	if !s.publishing.CompareAndSwap(false, true) {
		return PublishResult{}, ErrPublishInProgress
	}
	defer s.publishing.Store(false)

	s.mu.Lock()
	switch {
	case s.state.Closed():
		s.mu.Unlock()
		return PublishResult{}, ErrSessionClosed
	case s.source == nil:
		s.mu.Unlock()
		return PublishResult{}, ErrNoImage
	}
	src, v := s.source, s.transform.Viewport
	s.state = StatePublishing
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"offset_x": v.Offset.X,
		"offset_y": v.Offset.Y,
		"scale":    v.Scale,
	}).Debug("publish started")

	data, err := Render(src, v, s.Kind)
	if err != nil {
		s.backToEditing()
		return PublishResult{}, err
	}

	uploaded, err := up.Upload(ctx, Asset{
		Data:      data,
		MediaType: s.Kind.Output.Format.MediaType(),
		Format:    s.Kind.Output.Format,
		Folder:    s.Kind.Folder,
		Name:      s.Kind.Name + "_" + s.ID,
		Width:     s.Kind.Output.Width,
		Height:    s.Kind.Output.Height,
	})
	if err != nil {
		s.backToEditing()
		s.log.WithError(err).Debug("upload failed")
		return PublishResult{}, &UploadError{Err: err}
	}
	result := PublishResult{Upload: uploaded}

	// held across the attach so a concurrent cancel cannot interleave
	s.mu.Lock()
	if s.state.Closed() {
		s.mu.Unlock()
		s.log.WithField("url", uploaded.URL).Debug("session closed during upload, result dropped")
		return result, ErrSessionClosed
	}
	previous, err := at.SetImageReference(ctx, s.Ref, uploaded.URL)
	if err != nil {
		s.state = StateEditing
		s.touchedAt = time.Now()
		s.mu.Unlock()
		s.log.WithError(err).Debug("attach failed")
		return result, &PersistenceError{URL: uploaded.URL, Err: err}
	}
	result.PreviousURL = previous
	s.state = StateDone
	s.source = nil
	s.transform.Viewport = Viewport{}
	s.mu.Unlock()

	s.releaseLease()
	s.log.WithField("url", uploaded.URL).Debug("publish completed")
	return result, nil
}

func (s *Session) backToEditing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePublishing {
		s.state = StateEditing
		s.touchedAt = time.Now()
	}
}

// Cancel discards the session. An upload already in flight is not aborted.
func (s *Session) Cancel() error {
	s.mu.Lock()
	if s.state.Closed() {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.state = StateCancelled
	s.source = nil
	s.transform.Viewport = Viewport{}
	s.mu.Unlock()

	s.releaseLease()
	s.log.Debug("session cancelled")
	return nil
}

// Publishing reports whether a publish is in flight.
func (s *Session) Publishing() bool {
	return s.publishing.Load()
}

// Idle reports whether the session has not been touched for ttl. Sessions
// with a publish in flight are never idle.
func (s *Session) Idle(now time.Time, ttl time.Duration) bool {
	if s.publishing.Load() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.touchedAt) > ttl
}

func (s *Session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Closed() {
		return ErrSessionClosed
	}
	if s.state == StatePublishing {
		return ErrPublishInProgress
	}
	return nil
}

func (s *Session) releaseLease() {
	s.releaseOnce.Do(func() {
		if s.release != nil {
			s.release()
		}
	})
}
