package auth

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/papo-live/papo/internal/domain"
)

var (
	// ErrUnauthorized covers every credential failure: missing, malformed,
	// expired, or an identity that cannot be resolved.
	ErrUnauthorized = errors.New("unauthorized")
)

// Verifier turns an opaque bearer credential into a user id.
type Verifier interface {
	Verify(token string) (string, error)
}

// Directory resolves a user id into a full identity.
type Directory interface {
	UserByID(id string) (*domain.Identity, error)
}

// MemoryDirectory is an in-process Directory. User persistence lives outside
// this service; this is the seedable implementation used for wiring and tests.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]domain.Identity
}

// NewMemoryDirectory creates an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		users: make(map[string]domain.Identity),
	}
}

// Add inserts or replaces a user.
func (d *MemoryDirectory) Add(user domain.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
}

// UserByID looks a user up, failing with ErrUnauthorized on a miss so the
// session layer treats unknown ids exactly like bad credentials.
func (d *MemoryDirectory) UserByID(id string) (*domain.Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[id]
	if !ok {
		return nil, ErrUnauthorized
	}
	return &user, nil
}

// Len returns the number of known users.
func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}

// LoadDirectory seeds a MemoryDirectory from a JSON file holding an array of
// identities ({"id", "username", "profilePic"}).
func LoadDirectory(path string) (*MemoryDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var users []domain.Identity
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}

	dir := NewMemoryDirectory()
	for _, user := range users {
		dir.Add(user)
	}
	return dir, nil
}
