package game

import (
    "math/rand/v2"
    "strings"
    "sync"
    "time"
)

type RoomManager struct {
    mu       sync.RWMutex
    rooms    map[string]*Room
    notifier Notifier
    picker   Picker
    newCode  func() string
}

type Option func(*RoomManager)

// WithPicker replaces the random source used for spins. The picker is only
// called under a room's lock, but it is shared by every room.
func WithPicker(p Picker) Option {
    return func(rm *RoomManager) { rm.picker = p }
}

func NewRoomManager(opts ...Option) *RoomManager {
    rm := &RoomManager{
        rooms:    make(map[string]*Room),
        notifier: nopNotifier{},
        picker:   globalPicker{},
        newCode:  func() string { return randomCode(CodeLength) },
    }
    for _, opt := range opts {
        opt(rm)
    }
    return rm
}

// SetNotifier must be called before the first room is created.
func (rm *RoomManager) SetNotifier(n Notifier) {
    rm.mu.Lock()
    defer rm.mu.Unlock()
    if n == nil {
        n = nopNotifier{}
    }
    rm.notifier = n
}

// CreateRoom registers an empty room under a fresh code. Blank labels are
// dropped before the size check.
func (rm *RoomManager) CreateRoom(voci, punizioni []string) (*Room, error) {
    voci = cleanLabels(voci)
    punizioni = cleanLabels(punizioni)
    if len(voci) < 2 || len(punizioni) < 2 {
        return nil, ErrInvalidConfiguration
    }

    rm.mu.Lock()
    defer rm.mu.Unlock()

    code := rm.newCode()
    for rm.rooms[code] != nil {
        code = rm.newCode()
    }
    r := &Room{
        Code:      code,
        Voci:      voci,
        Punizioni: punizioni,
        CreatedAt: time.Now().UTC(),
        notifier:  rm.notifier,
        picker:    rm.picker,
    }
    rm.rooms[code] = r
    return r, nil
}

func (rm *RoomManager) Get(code string) (*Room, error) {
    if err := ValidateCode(code); err != nil {
        return nil, err
    }
    rm.mu.RLock()
    defer rm.mu.RUnlock()
    r := rm.rooms[code]
    if r == nil {
        return nil, ErrRoomNotFound
    }
    return r, nil
}

// RemoveIfEmpty deletes the room when nobody is seated in it. The room is
// closed first so a join that already holds a pointer to it fails.
func (rm *RoomManager) RemoveIfEmpty(code string) bool {
    rm.mu.Lock()
    defer rm.mu.Unlock()
    r := rm.rooms[code]
    if r == nil {
        return false
    }
    if !r.closeIfEmpty() {
        return false
    }
    delete(rm.rooms, code)
    return true
}

func (rm *RoomManager) Count() int {
    rm.mu.RLock()
    defer rm.mu.RUnlock()
    return len(rm.rooms)
}

// ValidateCode checks that code has the shape of a room code.
func ValidateCode(code string) error {
    if len(code) != CodeLength {
        return ErrMalformedRoomCode
    }
    for i := 0; i < len(code); i++ {
        if code[i] < '0' || code[i] > '9' {
            return ErrMalformedRoomCode
        }
    }
    return nil
}

func cleanLabels(in []string) []string {
    out := make([]string, 0, len(in))
    for _, v := range in {
        if v = strings.TrimSpace(v); v != "" {
            out = append(out, v)
        }
    }
    return out
}

func randomCode(n int) string {
    b := make([]byte, n)
    for i := range b {
        b[i] = byte('0' + rand.IntN(10))
    }
    return string(b)
}
