package room

import (
	"crypto/rand"
	"errors"
	"math/big"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/papo-live/papo/internal/domain"
)

var (
	// ErrRoomNotFound is returned when a code names no live room.
	ErrRoomNotFound = errors.New("room not found")

	// ErrCodeSpaceExhausted is returned when every code is taken by a live
	// room. Unreachable at expected scale; treated as a server fault.
	ErrCodeSpaceExhausted = errors.New("room code space exhausted")
)

// state is a live room. Members are connection ids in join order.
type state struct {
	visibility domain.Visibility
	members    []string
	createdAt  time.Time
}

// Registry owns the code->room map. Every mutation of membership, code
// allocation and the destroy-on-empty check happens under one mutex, so
// callers can never race on shared room state.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*state
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		rooms: make(map[string]*state),
	}
}

// randomCode draws a 4-digit code from [1000, 9999].
func randomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(domain.RoomCodeSpan))
	if err != nil {
		// crypto/rand only fails when the platform source is broken
		panic(err)
	}
	return strconv.FormatInt(n.Int64()+domain.RoomCodeMin, 10)
}

// allocateCode retries until it finds a free code. Caller must hold r.mu.
func (r *Registry) allocateCode() (string, error) {
	if len(r.rooms) >= domain.RoomCodeSpan {
		return "", ErrCodeSpaceExhausted
	}
	code := randomCode()
	for _, taken := r.rooms[code]; taken; _, taken = r.rooms[code] {
		code = randomCode()
	}
	return code, nil
}

// CreateRoom allocates a unique code and creates an empty room record.
func (r *Registry) CreateRoom(visibility domain.Visibility) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.allocateCode()
	if err != nil {
		return "", err
	}
	r.rooms[code] = &state{
		visibility: visibility,
		createdAt:  time.Now(),
	}
	return code, nil
}

// Join adds a connection to the room's member set.
func (r *Registry) Join(code, connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	if !slices.Contains(room.members, connID) {
		room.members = append(room.members, connID)
	}
	return nil
}

// Leave removes a connection from the room. When the last member leaves the
// room is destroyed immediately. Returns whether the room was destroyed and
// how many members remain; unknown codes are a no-op.
func (r *Registry) Leave(code, connID string) (destroyed bool, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		return false, 0
	}
	if i := slices.Index(room.members, connID); i >= 0 {
		room.members = slices.Delete(room.members, i, i+1)
	}
	if len(room.members) == 0 {
		delete(r.rooms, code)
		return true, 0
	}
	return false, len(room.members)
}

// Members returns the room's member connection ids in join order.
func (r *Registry) Members(code string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		return nil, false
	}
	return slices.Clone(room.members), true
}

// Exists reports whether a room with the given code is live.
func (r *Registry) Exists(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[code]
	return ok
}

// Count returns the number of live rooms.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// PublicRooms lists public rooms sorted by member count descending.
func (r *Registry) PublicRooms() []domain.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]domain.RoomInfo, 0, len(r.rooms))
	for code, room := range r.rooms {
		if room.visibility != domain.VisibilityPublic {
			continue
		}
		list = append(list, domain.RoomInfo{
			Code:       code,
			UsersCount: len(room.members),
			CreatedAt:  room.createdAt.UnixMilli(),
		})
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].UsersCount != list[j].UsersCount {
			return list[i].UsersCount > list[j].UsersCount
		}
		return list[i].Code < list[j].Code
	})
	return list
}
