package broadcast

import (
	"errors"
	"sync"
	"testing"

	"proctorhub/internal/registry"
	"proctorhub/pkg/types"
)

type recordingSender struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (s *recordingSender) Send(event string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sender closed")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSender) count(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e == event {
			n++
		}
	}
	return n
}

func setup() (*registry.Registry, *Engine, map[string]*recordingSender) {
	reg := registry.NewRegistry()
	engine := NewEngine(reg)
	senders := map[string]*recordingSender{
		"s1": {}, "s2": {}, "f1": {}, "f2": {},
	}
	reg.Register("s1", types.RoleStudent, "u1", "Alice", senders["s1"])
	reg.Register("s2", types.RoleStudent, "u2", "Bob", senders["s2"])
	reg.Register("f1", types.RoleFaculty, "u3", "Prof", senders["f1"])
	reg.Register("f2", types.RoleFaculty, "u4", "Dean", senders["f2"])
	return reg, engine, senders
}

func TestBroadcast_ToRole(t *testing.T) {
	_, engine, senders := setup()

	engine.ToRole(types.RoleStudent, types.EventNewPaper, map[string]string{"id": "p1"})

	for _, id := range []string{"s1", "s2"} {
		if got := senders[id].count(types.EventNewPaper); got != 1 {
			t.Errorf("student %s: expected 1 event, got %d", id, got)
		}
	}
	for _, id := range []string{"f1", "f2"} {
		if got := senders[id].count(types.EventNewPaper); got != 0 {
			t.Errorf("faculty %s: expected 0 events, got %d", id, got)
		}
	}
}

func TestBroadcast_ToRoleExcept(t *testing.T) {
	_, engine, senders := setup()

	engine.ToRoleExcept(types.RoleFaculty, types.EventStudentLeft, nil, "f1")

	if got := senders["f1"].count(types.EventStudentLeft); got != 0 {
		t.Errorf("excluded faculty received %d events", got)
	}
	if got := senders["f2"].count(types.EventStudentLeft); got != 1 {
		t.Errorf("other faculty: expected 1 event, got %d", got)
	}
}

// Chat fan-out shape: both students, both roles in one snapshot, the
// sending faculty connection excluded from its own branch.
func TestBroadcast_FanChatRecipientSet(t *testing.T) {
	_, engine, senders := setup()

	engine.Fan(types.EventChatMessage,
		types.ChatMessage{Message: "hi", Sender: "Bob"},
		registry.Group{Role: types.RoleStudent},
		registry.Group{Role: types.RoleFaculty, Exclude: "f1"},
	)

	want := map[string]int{"s1": 1, "s2": 1, "f1": 0, "f2": 1}
	for id, expected := range want {
		if got := senders[id].count(types.EventChatMessage); got != expected {
			t.Errorf("%s: expected %d chat-message events, got %d", id, expected, got)
		}
	}
}

func TestBroadcast_FailedSendDoesNotAbortFanOut(t *testing.T) {
	reg := registry.NewRegistry()
	engine := NewEngine(reg)

	broken := &recordingSender{fail: true}
	healthy := &recordingSender{}
	reg.Register("s1", types.RoleStudent, "u1", "Alice", broken)
	reg.Register("s2", types.RoleStudent, "u2", "Bob", healthy)

	engine.ToRole(types.RoleStudent, types.EventChatMessage, nil)

	if got := healthy.count(types.EventChatMessage); got != 1 {
		t.Errorf("delivery after a failed sender: expected 1, got %d", got)
	}
}

func TestBroadcast_LateJoinerMissesInFlightEvent(t *testing.T) {
	reg, engine, senders := setup()

	engine.ToRole(types.RoleStudent, types.EventNewPaper, nil)

	late := &recordingSender{}
	reg.Register("s3", types.RoleStudent, "u5", "Carol", late)

	if got := late.count(types.EventNewPaper); got != 0 {
		t.Errorf("late joiner received %d events from an earlier snapshot", got)
	}
	if got := senders["s1"].count(types.EventNewPaper); got != 1 {
		t.Errorf("existing member: expected 1, got %d", got)
	}
}
