package game

import (
	"errors"
	"sync"
	"testing"
)

func TestNewRoomManager(t *testing.T) {
	rm := NewRoomManager()
	if rm.rooms == nil {
		t.Fatal("rooms map should be initialized")
	}
	if rm.Count() != 0 {
		t.Fatalf("expected no rooms, got %d", rm.Count())
	}
}

func TestCreateRoom(t *testing.T) {
	rm := NewRoomManager()
	room, err := rm.CreateRoom([]string{"A", " B ", "", "C"}, []string{"X", "  ", "Y"})
	if err != nil {
		t.Fatalf("should be able to create room: %v", err)
	}

	if err := ValidateCode(room.Code); err != nil {
		t.Fatalf("generated code %q is not valid: %v", room.Code, err)
	}
	if len(room.Voci) != 3 || room.Voci[1] != "B" {
		t.Fatalf("expected trimmed voci [A B C], got %v", room.Voci)
	}
	if len(room.Punizioni) != 2 {
		t.Fatalf("expected blank punizioni dropped, got %v", room.Punizioni)
	}

	got, err := rm.Get(room.Code)
	if err != nil {
		t.Fatalf("should be able to retrieve created room: %v", err)
	}
	if got != room {
		t.Fatal("Get should return the registered room")
	}
}

func TestCreateRoomInvalidConfiguration(t *testing.T) {
	rm := NewRoomManager()
	cases := []struct {
		name      string
		voci      []string
		punizioni []string
	}{
		{"one voce", []string{"A"}, []string{"X", "Y"}},
		{"one punizione", []string{"A", "B"}, []string{"X"}},
		{"blank labels only", []string{"A", " "}, []string{"X", "Y"}},
		{"nil", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := rm.CreateRoom(tc.voci, tc.punizioni); !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
	if rm.Count() != 0 {
		t.Fatalf("failed creations must not register rooms, got %d", rm.Count())
	}
}

func TestCreateRoomRegeneratesOnCollision(t *testing.T) {
	rm := NewRoomManager()
	codes := []string{"111111", "111111", "222222"}
	rm.newCode = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}

	first, err := rm.CreateRoom([]string{"A", "B"}, []string{"X", "Y"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := rm.CreateRoom([]string{"A", "B"}, []string{"X", "Y"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Code != "111111" || second.Code != "222222" {
		t.Fatalf("expected codes 111111 and 222222, got %s and %s", first.Code, second.Code)
	}
}

func TestConcurrentCreateRoomUniqueCodes(t *testing.T) {
	rm := NewRoomManager()
	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := rm.CreateRoom([]string{"A", "B"}, []string{"X", "Y"}); err != nil {
				t.Errorf("create: %v", err)
			}
		}()
	}
	wg.Wait()
	if rm.Count() != n {
		t.Fatalf("expected %d distinct rooms, got %d", n, rm.Count())
	}
}

func TestGetValidatesCode(t *testing.T) {
	rm := NewRoomManager()
	for _, code := range []string{"", "12345", "1234567", "12a456", "١٢٣٤٥٦"} {
		if _, err := rm.Get(code); !errors.Is(err, ErrMalformedRoomCode) {
			t.Fatalf("code %q: expected ErrMalformedRoomCode, got %v", code, err)
		}
	}
	if _, err := rm.Get("000000"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRemoveIfEmpty(t *testing.T) {
	rm := NewRoomManager()
	room, _ := rm.CreateRoom([]string{"A", "B"}, []string{"X", "Y"})
	if _, err := room.Join("Ada", "sid-ada", false); err != nil {
		t.Fatalf("join: %v", err)
	}

	if rm.RemoveIfEmpty(room.Code) {
		t.Fatal("occupied room must not be removed")
	}
	room.Leave("sid-ada")
	if !rm.RemoveIfEmpty(room.Code) {
		t.Fatal("empty room should be removed")
	}
	if rm.RemoveIfEmpty(room.Code) {
		t.Fatal("second removal should report nothing removed")
	}
	if _, err := rm.Get(room.Code); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound after removal, got %v", err)
	}
	// a handler still holding the pointer must not resurrect the room
	if _, err := room.Join("Bo", "sid-bo", false); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("join on removed room: expected ErrRoomNotFound, got %v", err)
	}
}

func TestRemoveIfEmptyClosesUnjoinedRoom(t *testing.T) {
	rm := NewRoomManager()
	room, _ := rm.CreateRoom([]string{"A", "B"}, []string{"X", "Y"})
	if !rm.RemoveIfEmpty(room.Code) {
		t.Fatal("room without participants should be removed")
	}
	if _, err := room.Join("Ada", "sid-ada", false); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}
