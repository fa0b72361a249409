package realtime

import (
	"log/slog"
	"sync"
)

// ConnectionCount is a point-in-time view of the registry.
type ConnectionCount struct {
	Users    int `json:"users"`
	Channels int `json:"channels"`
}

// Registry tracks the live push channels of every connected user and fans
// events out to them. Delivery is best effort: users without a live channel
// miss the event, and channels whose write fails are dropped.
type Registry struct {
	mu     sync.RWMutex
	users  map[string]map[Channel]*registration
	owners map[Channel]string

	logger  *slog.Logger
	metrics *Metrics
}

// registration is closed out when its channel leaves the registry, which
// stops the close watcher.
type registration struct {
	stop chan struct{}
}

type target struct {
	userID string
	ch     Channel
}

// NewRegistry creates an empty registry. Both arguments may be nil.
func NewRegistry(logger *slog.Logger, metrics *Metrics) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		users:   make(map[string]map[Channel]*registration),
		owners:  make(map[Channel]string),
		logger:  logger,
		metrics: metrics,
	}
}

// Register adds ch to userID's channels and watches it for closure.
// Registering the same channel again is a no-op; registering it under a
// different user moves it.
func (r *Registry) Register(userID string, ch Channel) {
	if ch == nil {
		return
	}
	r.mu.Lock()
	if owner, ok := r.owners[ch]; ok {
		if owner == userID {
			r.mu.Unlock()
			return
		}
		r.removeLocked(owner, ch)
	}
	set, ok := r.users[userID]
	if !ok {
		set = make(map[Channel]*registration)
		r.users[userID] = set
	}
	reg := &registration{stop: make(chan struct{})}
	set[ch] = reg
	r.owners[ch] = userID
	r.observeLocked()
	r.mu.Unlock()

	go r.watch(userID, ch, reg)
	r.logger.Debug("channel registered", "user", userID, "channel", ch.ID())
}

// Unregister removes ch from userID's channels. Unknown pairs are ignored.
func (r *Registry) Unregister(userID string, ch Channel) {
	if ch == nil {
		return
	}
	r.mu.Lock()
	removed := r.owners[ch] == userID && r.removeLocked(userID, ch)
	r.mu.Unlock()
	if removed {
		r.logger.Debug("channel unregistered", "user", userID, "channel", ch.ID())
	}
}

// CountConnections reports distinct users and total channels.
func (r *Registry) CountConnections() ConnectionCount {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countLocked()
}

// SendToUser writes the event to every live channel of userID. It reports
// whether the user had any channel when called, not whether the writes
// succeeded.
func (r *Registry) SendToUser(userID, event string, payload any) bool {
	targets := r.userTargets(userID)
	if len(targets) == 0 {
		r.metrics.sendUnreachable()
		return false
	}
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		r.logger.Error("drop event", "user", userID, "event", event, "error", err)
		return true
	}
	r.deliver(frame, targets)
	return true
}

// Broadcast writes the event to every live channel of every user.
func (r *Registry) Broadcast(event string, payload any) {
	targets := r.allTargets()
	if len(targets) == 0 {
		return
	}
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		r.logger.Error("drop broadcast", "event", event, "error", err)
		return
	}
	r.deliver(frame, targets)
}

func (r *Registry) userTargets(userID string) []target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.users[userID]
	out := make([]target, 0, len(set))
	for ch := range set {
		out = append(out, target{userID: userID, ch: ch})
	}
	return out
}

func (r *Registry) allTargets() []target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []target
	for userID, set := range r.users {
		for ch := range set {
			out = append(out, target{userID: userID, ch: ch})
		}
	}
	return out
}

// deliver writes outside the lock, then prunes every channel that failed.
func (r *Registry) deliver(frame Frame, targets []target) {
	var failed []target
	for _, t := range targets {
		err := t.ch.Write(frame)
		r.metrics.frameWritten(err == nil)
		if err != nil {
			r.logger.Debug("channel write failed", "user", t.userID, "channel", t.ch.ID(), "error", err)
			failed = append(failed, t)
		}
	}
	if len(failed) == 0 {
		return
	}
	r.mu.Lock()
	for _, t := range failed {
		if r.owners[t.ch] == t.userID {
			r.removeLocked(t.userID, t.ch)
		}
	}
	r.mu.Unlock()
}

// watch drops ch once its transport closes, unless it leaves the registry first.
func (r *Registry) watch(userID string, ch Channel, reg *registration) {
	select {
	case <-ch.Done():
	case <-reg.stop:
		return
	}
	r.mu.Lock()
	removed := false
	if set, ok := r.users[userID]; ok && set[ch] == reg {
		removed = r.removeLocked(userID, ch)
	}
	r.mu.Unlock()
	if removed {
		r.logger.Debug("channel closed", "user", userID, "channel", ch.ID())
	}
}

func (r *Registry) removeLocked(userID string, ch Channel) bool {
	set, ok := r.users[userID]
	if !ok {
		return false
	}
	reg, ok := set[ch]
	if !ok {
		return false
	}
	delete(set, ch)
	delete(r.owners, ch)
	close(reg.stop)
	if len(set) == 0 {
		delete(r.users, userID)
	}
	r.observeLocked()
	return true
}

func (r *Registry) countLocked() ConnectionCount {
	c := ConnectionCount{Users: len(r.users)}
	for _, set := range r.users {
		c.Channels += len(set)
	}
	return c
}

func (r *Registry) observeLocked() {
	if r.metrics == nil {
		return
	}
	r.metrics.setConnections(r.countLocked())
}
