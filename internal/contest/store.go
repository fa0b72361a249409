package contest

import (
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin  = "admin"
	RoleJudge  = "judge"
	RoleMember = "member"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Live event names sent to users.
const (
	EventMemberJoined     = "member_joined"
	EventMemberRemoved    = "member_removed"
	EventRoleChanged      = "role_changed"
	EventContestSubmitted = "contest_submitted"
	EventContestApproved  = "contest_approved"
	EventContestRejected  = "contest_rejected"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrContestNotFound = errors.New("contest not found")
	ErrNotMember       = errors.New("user is not a room member")
	ErrInvalidRole     = errors.New("invalid role")
	ErrOwnerImmutable  = errors.New("room owner cannot be changed or removed")
	ErrAlreadyDecided  = errors.New("contest already decided")
	ErrInvalidInput    = errors.New("invalid input")
)

// Notifier pushes a live event to every session of one user. The result only
// says whether the user was online.
type Notifier interface {
	SendToUser(userID, event string, payload any) bool
}

// Store holds rooms and contests in memory and notifies affected users of
// every change.
type Store struct {
	mu       sync.RWMutex
	rooms    map[string]*room
	contests map[string]*Contest

	notifier Notifier
	logger   *slog.Logger
}

// NewStore creates an empty store. logger may be nil.
func NewStore(notifier Notifier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		rooms:    make(map[string]*room),
		contests: make(map[string]*Contest),
		notifier: notifier,
		logger:   logger,
	}
}

type room struct {
	id        string
	name      string
	ownerID   string
	createdAt time.Time
	members   map[string]*Member
}

// Member is one user's membership in a room.
type Member struct {
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Room is a read-only view of a room.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	Members   []Member  `json:"members"`
}

// Contest is a contest awaiting or past admin verification.
type Contest struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"room_id"`
	Title       string    `json:"title"`
	SubmittedBy string    `json:"submitted_by"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	DecidedAt   time.Time `json:"decided_at,omitzero"`
}

type memberEvent struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
}

// CreateRoom creates a room owned by ownerID, who joins as admin.
func (s *Store) CreateRoom(name, ownerID string) (Room, error) {
	name = strings.TrimSpace(name)
	if name == "" || ownerID == "" {
		return Room{}, ErrInvalidInput
	}
	now := time.Now().UTC()
	r := &room{
		id:        uuid.NewString(),
		name:      name,
		ownerID:   ownerID,
		createdAt: now,
		members: map[string]*Member{
			ownerID: {UserID: ownerID, Role: RoleAdmin, JoinedAt: now},
		},
	}
	s.mu.Lock()
	s.rooms[r.id] = r
	snap := r.snapshot()
	s.mu.Unlock()

	s.logger.Info("room created", "room", r.id, "owner", ownerID)
	return snap, nil
}

// GetRoom returns a room by ID.
func (s *Store) GetRoom(roomID string) (Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return Room{}, ErrRoomNotFound
	}
	return r.snapshot(), nil
}

// JoinRoom adds userID as a member and tells the owner. Joining twice
// returns the existing membership.
func (s *Store) JoinRoom(roomID, userID string) (Member, error) {
	if userID == "" {
		return Member{}, ErrInvalidInput
	}
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return Member{}, ErrRoomNotFound
	}
	if m, ok := r.members[userID]; ok {
		s.mu.Unlock()
		return *m, nil
	}
	m := &Member{UserID: userID, Role: RoleMember, JoinedAt: time.Now().UTC()}
	r.members[userID] = m
	owner := r.ownerID
	s.mu.Unlock()

	s.notify(owner, EventMemberJoined, memberEvent{RoomID: roomID, UserID: userID, Role: m.Role})
	return *m, nil
}

// ChangeRole sets a member's role and tells that member.
func (s *Store) ChangeRole(roomID, userID, role string) (Member, error) {
	if !validRole(role) {
		return Member{}, ErrInvalidRole
	}
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return Member{}, ErrRoomNotFound
	}
	m, ok := r.members[userID]
	if !ok {
		s.mu.Unlock()
		return Member{}, ErrNotMember
	}
	if userID == r.ownerID {
		s.mu.Unlock()
		return Member{}, ErrOwnerImmutable
	}
	m.Role = role
	out := *m
	s.mu.Unlock()

	s.logger.Info("role changed", "room", roomID, "user", userID, "role", role)
	s.notify(userID, EventRoleChanged, memberEvent{RoomID: roomID, UserID: userID, Role: role})
	return out, nil
}

// RemoveMember drops a member from a room and tells them.
func (s *Store) RemoveMember(roomID, userID string) error {
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	if _, ok := r.members[userID]; !ok {
		s.mu.Unlock()
		return ErrNotMember
	}
	if userID == r.ownerID {
		s.mu.Unlock()
		return ErrOwnerImmutable
	}
	delete(r.members, userID)
	s.mu.Unlock()

	s.notify(userID, EventMemberRemoved, memberEvent{RoomID: roomID, UserID: userID})
	return nil
}

// SubmitContest files a contest for verification and tells the room owner.
func (s *Store) SubmitContest(roomID, title, submitterID string) (Contest, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Contest{}, ErrInvalidInput
	}
	s.mu.Lock()
	r, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return Contest{}, ErrRoomNotFound
	}
	if _, ok := r.members[submitterID]; !ok {
		s.mu.Unlock()
		return Contest{}, ErrNotMember
	}
	c := &Contest{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		Title:       title,
		SubmittedBy: submitterID,
		Status:      StatusPending,
		SubmittedAt: time.Now().UTC(),
	}
	s.contests[c.ID] = c
	owner := r.ownerID
	out := *c
	s.mu.Unlock()

	s.notify(owner, EventContestSubmitted, out)
	return out, nil
}

// GetContest returns a contest by ID.
func (s *Store) GetContest(contestID string) (Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contests[contestID]
	if !ok {
		return Contest{}, ErrContestNotFound
	}
	return *c, nil
}

// ApproveContest marks a pending contest approved and tells every room member.
func (s *Store) ApproveContest(contestID string) (Contest, error) {
	return s.decide(contestID, StatusApproved, "")
}

// RejectContest marks a pending contest rejected and tells every room member.
func (s *Store) RejectContest(contestID, reason string) (Contest, error) {
	return s.decide(contestID, StatusRejected, strings.TrimSpace(reason))
}

func (s *Store) decide(contestID, status, reason string) (Contest, error) {
	s.mu.Lock()
	c, ok := s.contests[contestID]
	if !ok {
		s.mu.Unlock()
		return Contest{}, ErrContestNotFound
	}
	if c.Status != StatusPending {
		s.mu.Unlock()
		return Contest{}, ErrAlreadyDecided
	}
	c.Status = status
	c.Reason = reason
	c.DecidedAt = time.Now().UTC()
	out := *c
	var recipients []string
	if r, ok := s.rooms[c.RoomID]; ok {
		recipients = r.memberIDs()
	}
	s.mu.Unlock()

	event := EventContestApproved
	if status == StatusRejected {
		event = EventContestRejected
	}
	s.logger.Info("contest decided", "contest", contestID, "status", status, "recipients", len(recipients))
	for _, userID := range recipients {
		s.notify(userID, event, out)
	}
	return out, nil
}

func (s *Store) notify(userID, event string, payload any) {
	if s.notifier == nil {
		return
	}
	if !s.notifier.SendToUser(userID, event, payload) {
		s.logger.Debug("user offline, live event skipped", "user", userID, "event", event)
	}
}

func (r *room) snapshot() Room {
	members := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		members = append(members, *m)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].UserID < members[j].UserID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return Room{
		ID:        r.id,
		Name:      r.name,
		OwnerID:   r.ownerID,
		CreatedAt: r.createdAt,
		Members:   members,
	}
}

func (r *room) memberIDs() []string {
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func validRole(role string) bool {
	switch role {
	case RoleAdmin, RoleJudge, RoleMember:
		return true
	}
	return false
}
