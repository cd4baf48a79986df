package session

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/metrics"
	"github.com/Domenick1991/flightbooking/internal/pnr"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/seatmap"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type deps struct {
	bookings           repository.BookingRepository
	pnr                *pnr.Generator
	seats              *seatmap.Generator
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	log                *zap.Logger
	now                func() time.Time
}

type Option func(*Registry)

func WithLogger(log *zap.Logger) Option {
	return func(r *Registry) {
		r.deps.log = log
	}
}

func WithProducer(p Producer, bookingTopic, notificationsTopic string) Option {
	return func(r *Registry) {
		r.deps.producer = p
		r.deps.bookingTopic = bookingTopic
		r.deps.notificationsTopic = notificationsTopic
	}
}

func WithPNRGenerator(g *pnr.Generator) Option {
	return func(r *Registry) {
		r.deps.pnr = g
	}
}

func WithSeatGenerator(g *seatmap.Generator) Option {
	return func(r *Registry) {
		r.deps.seats = g
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.deps.now = now
	}
}

// WithIdleTTL sets how long an untouched session survives EvictIdle.
func WithIdleTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.ttl = ttl
	}
}

// Registry owns the live booking sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     *deps
	ttl      time.Duration
}

func NewRegistry(bookings repository.BookingRepository, opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		deps: &deps{
			bookings: bookings,
			log:      zap.NewNop(),
			now:      time.Now,
		},
		ttl: time.Hour,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.deps.pnr == nil {
		r.deps.pnr = pnr.NewGenerator(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), 5)
	}
	if r.deps.seats == nil {
		r.deps.seats = seatmap.NewGenerator(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	}
	return r
}

func (r *Registry) Create() *Session {
	s := newSession(uuid.NewString(), r.deps)

	r.mu.Lock()
	r.sessions[s.id] = s
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle drops sessions untouched for longer than the idle TTL and
// returns how many were removed.
func (r *Registry) EvictIdle() int {
	deadline := r.deps.now().Add(-r.ttl)

	r.mu.Lock()
	evicted := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(deadline) {
			delete(r.sessions, id)
			evicted++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	if evicted > 0 {
		r.deps.log.Info("evicted idle sessions", zap.Int("count", evicted))
	}
	return evicted
}

// RunEviction calls EvictIdle every interval until ctx ends.
func (r *Registry) RunEviction(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.EvictIdle()
		}
	}
}
