package api

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"propertymap/server/internal/cluster"
	"propertymap/server/internal/geo"
	"propertymap/server/internal/interaction"
	"propertymap/server/internal/mapcore"
	"propertymap/server/internal/models"
)

var (
	ErrSessionNotFound  = errors.New("map session not found")
	ErrSessionStoreFull = errors.New("map session limit reached")
)

// EventType names a listener callback.
type EventType string

const (
	EventPropertySelect   EventType = "property_select"
	EventPropertyHover    EventType = "property_hover"
	EventSearchAreaChange EventType = "search_area_change"
)

// Event is one listener callback captured during a request.
type Event struct {
	Type       EventType         `json:"type"`
	Property   *models.Property  `json:"property,omitempty"`
	Properties []models.Property `json:"properties,omitempty"`
}

// eventRecorder buffers the callbacks of one map until they are drained.
type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) OnPropertySelect(p models.Property) {
	r.events = append(r.events, Event{Type: EventPropertySelect, Property: &p})
}

func (r *eventRecorder) OnPropertyHover(p *models.Property) {
	r.events = append(r.events, Event{Type: EventPropertyHover, Property: p})
}

func (r *eventRecorder) OnSearchAreaChange(filtered []models.Property) {
	if filtered == nil {
		filtered = []models.Property{}
	}
	r.events = append(r.events, Event{Type: EventSearchAreaChange, Properties: filtered})
}

func (r *eventRecorder) drain() []Event {
	events := r.events
	r.events = nil
	if events == nil {
		events = []Event{}
	}
	return events
}

// Session is one map instance driven over HTTP.
type Session struct {
	ID        string
	CreatedAt time.Time
	Filter    models.PropertyFilter

	// guarded by the store's mutex
	lastUsed time.Time

	mu     sync.Mutex
	m      *mapcore.Map
	events *eventRecorder
}

// Do runs fn with exclusive access to the session's map and returns the
// events it emitted.
func (s *Session) Do(fn func(m *mapcore.Map)) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.m)
	return s.events.drain()
}

// SessionView is the JSON summary of a session.
type SessionView struct {
	ID                string            `json:"id"`
	CreatedAt         time.Time         `json:"created_at"`
	Bounds            geo.Bounds        `json:"bounds"`
	Viewport          geo.Viewport      `json:"viewport"`
	Zoom              float64           `json:"zoom"`
	ClusteringEnabled bool              `json:"clustering_enabled"`
	ClusterRadius     float64           `json:"cluster_radius"`
	DrawingEnabled    bool              `json:"drawing_enabled"`
	Interaction       interaction.State `json:"interaction"`
	Summary           cluster.Summary   `json:"summary"`
	Areas             int               `json:"areas"`
	Filtered          int               `json:"filtered"`
}

func (s *Session) view(m *mapcore.Map) SessionView {
	state := m.State()
	return SessionView{
		ID:                s.ID,
		CreatedAt:         s.CreatedAt,
		Bounds:            state.Bounds,
		Viewport:          state.Viewport,
		Zoom:              state.Zoom,
		ClusteringEnabled: state.ClusteringEnabled,
		ClusterRadius:     state.ClusterRadius,
		DrawingEnabled:    state.DrawingEnabled,
		Interaction:       state.Interaction,
		Summary:           m.Summary(),
		Areas:             len(state.Areas),
		Filtered:          len(m.Filtered()),
	}
}

// SessionStore keeps the live map sessions in memory. Sessions idle for
// longer than the TTL are evicted; a zero TTL keeps them until deleted.
type SessionStore struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	maxSessions int
	ttl         time.Duration
	now         func() time.Time
	logger      *logrus.Logger
}

// NewSessionStore creates a store holding at most maxSessions sessions, or
// any number when maxSessions is zero or negative.
func NewSessionStore(maxSessions int, ttl time.Duration, logger *logrus.Logger) *SessionStore {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &SessionStore{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		ttl:         ttl,
		now:         time.Now,
		logger:      logger,
	}
}

// Create starts a session with the given options and properties. Expired
// sessions are evicted first; ErrSessionStoreFull is returned when the store
// is still at capacity.
func (s *SessionStore) Create(opts mapcore.Options, filter models.PropertyFilter, properties []models.Property) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked()
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.logger.WithField("sessions", len(s.sessions)).Warn("Map session limit reached")
		return nil, ErrSessionStoreFull
	}

	now := s.now()
	recorder := &eventRecorder{}
	session := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		Filter:    filter,
		lastUsed:  now,
		m:         mapcore.New(opts, recorder, s.logger),
		events:    recorder,
	}
	session.m.SetProperties(properties)
	recorder.drain()
	s.sessions[session.ID] = session

	s.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"properties": len(properties),
	}).Info("Created map session")
	return session, nil
}

// Get returns a live session and marks it as used.
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok || s.expired(session) {
		return nil, ErrSessionNotFound
	}
	session.lastUsed = s.now()
	return session, nil
}

func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	s.logger.WithField("session_id", id).Info("Deleted map session")
	return nil
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictExpired removes the sessions idle for longer than the TTL and returns
// how many were removed.
func (s *SessionStore) EvictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictLocked()
}

// Run evicts expired sessions every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictExpired()
		}
	}
}

func (s *SessionStore) expired(session *Session) bool {
	return s.ttl > 0 && s.now().Sub(session.lastUsed) > s.ttl
}

func (s *SessionStore) evictLocked() int {
	evicted := 0
	for id, session := range s.sessions {
		if s.expired(session) {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.WithFields(logrus.Fields{
			"evicted":   evicted,
			"remaining": len(s.sessions),
		}).Info("Evicted idle map sessions")
	}
	return evicted
}
