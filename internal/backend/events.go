package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/questeded/quested/internal/config"
	"github.com/questeded/quested/internal/logger"
)

type AuthEvent string

const (
	EventSignedIn         AuthEvent = "SIGNED_IN"
	EventSignedOut        AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed   AuthEvent = "TOKEN_REFRESHED"
	EventUserUpdated      AuthEvent = "USER_UPDATED"
	EventPasswordRecovery AuthEvent = "PASSWORD_RECOVERY"
)

const (
	subscriberBufferSize    = 16
	redisPingTimeout        = 5 * time.Second
	defaultAuthEventChannel = "auth-events"
)

// AuthChangeEvent is delivered to OnAuthStateChange subscribers. Session is
// only set for events raised by this process; events relayed from other
// instances carry the user and session id alone.
type AuthChangeEvent struct {
	Kind      AuthEvent `json:"kind"`
	User      *User     `json:"user,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Session   *Session  `json:"-"`
}

// UserID returns the id of the user the event is about, or "".
func (e AuthChangeEvent) UserID() string {
	if e.User == nil {
		return ""
	}
	return e.User.ID
}

// relayedEvent is the redis wire format. Origin lets an instance skip its
// own events, which it already delivered locally.
type relayedEvent struct {
	Origin string          `json:"origin"`
	Event  AuthChangeEvent `json:"event"`
}

// Subscription is a live OnAuthStateChange registration.
type Subscription struct {
	bus  *eventBus
	id   uint64
	ch   chan AuthChangeEvent
	done chan struct{}
	once sync.Once
}

// Unsubscribe stops delivery. Safe to call more than once and on a nil
// subscription.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.id)
		close(s.done)
	})
}

// eventBus fans auth events out to subscribers. Each subscriber is served by
// its own goroutine so publishers never run callbacks inline.
type eventBus struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	log    *logger.Logger

	rdb     *goredis.Client
	channel string
	origin  string
	cancel  context.CancelFunc
}

func newEventBus(ctx context.Context, cfg config.Redis, log *logger.Logger) (*eventBus, error) {
	b := &eventBus{
		subs: make(map[uint64]*Subscription),
		log:  log.With("service", "AuthEventBus"),
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return b, nil
	}

	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = defaultAuthEventChannel
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: redisPingTimeout,
	})

	pingCtx, cancelPing := context.WithTimeout(ctx, redisPingTimeout)
	defer cancelPing()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	forwardCtx, cancel := context.WithCancel(context.Background())
	sub := rdb.Subscribe(forwardCtx, channel)
	// ensures subscription actually started
	if _, err := sub.Receive(pingCtx); err != nil {
		cancel()
		_ = sub.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	b.rdb = rdb
	b.channel = channel
	b.origin = uuid.NewString()
	b.cancel = cancel
	go b.forward(forwardCtx, sub)

	b.log.Info("Relaying auth events through redis", "channel", channel)
	return b, nil
}

func (b *eventBus) forward(ctx context.Context, sub *goredis.PubSub) {
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok || m == nil {
				return
			}
			var relayed relayedEvent
			if err := json.Unmarshal([]byte(m.Payload), &relayed); err != nil {
				b.log.Warn("Bad auth event payload", "error", err)
				continue
			}
			if relayed.Origin == b.origin {
				continue
			}
			b.dispatch(relayed.Event)
		}
	}
}

func (b *eventBus) subscribe(cb func(AuthChangeEvent)) *Subscription {
	b.mu.Lock()
	b.nextID++
	s := &Subscription{
		bus:  b,
		id:   b.nextID,
		ch:   make(chan AuthChangeEvent, subscriberBufferSize),
		done: make(chan struct{}),
	}
	b.subs[s.id] = s
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-s.done:
				return
			case ev := <-s.ch:
				cb(ev)
			}
		}
	}()
	return s
}

func (b *eventBus) remove(id uint64) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

func (b *eventBus) publish(ctx context.Context, ev AuthChangeEvent) {
	b.dispatch(ev)
	if b.rdb == nil {
		return
	}
	raw, err := json.Marshal(relayedEvent{Origin: b.origin, Event: ev})
	if err == nil {
		err = b.rdb.Publish(ctx, b.channel, raw).Err()
	}
	if err != nil {
		b.log.Warn("Failed to relay auth event", "kind", ev.Kind, "error", err)
	}
}

func (b *eventBus) dispatch(ev AuthChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		select {
		case s.ch <- ev:
		default:
			b.log.Warn("Auth event subscriber is full, dropping event", "kind", ev.Kind)
		}
	}
}

func (b *eventBus) close() {
	b.mu.Lock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()
	for _, s := range subs {
		s.Unsubscribe()
	}
	if b.cancel != nil {
		b.cancel()
	}
	if b.rdb != nil {
		_ = b.rdb.Close()
	}
}
