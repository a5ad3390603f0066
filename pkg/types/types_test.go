package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRoleValid(t *testing.T) {
	if !RoleStudent.Valid() || !RoleFaculty.Valid() {
		t.Error("known roles rejected")
	}
	if Role("observer").Valid() || Role("").Valid() {
		t.Error("unknown roles accepted")
	}
}

func TestJoinPayloadValidate(t *testing.T) {
	ok := JoinPayload{UserID: "u1", Name: "Alice"}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}

	for _, p := range []JoinPayload{
		{Name: "Alice"},
		{UserID: "u1"},
		{},
	} {
		if err := p.Validate(); !errors.Is(err, ErrMissingField) {
			t.Errorf("%+v: expected ErrMissingField, got %v", p, err)
		}
	}
}

func TestSignalPayloadValidate(t *testing.T) {
	ok := SignalPayload{To: "s1", Data: json.RawMessage(`{}`)}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}

	if err := (&SignalPayload{Data: json.RawMessage(`{}`)}).Validate(); !errors.Is(err, ErrMissingField) {
		t.Error("missing recipient accepted")
	}
	if err := (&SignalPayload{To: "s1"}).Validate(); !errors.Is(err, ErrMissingField) {
		t.Error("empty body accepted")
	}
}

func TestChatPayloadValidate(t *testing.T) {
	ok := ChatPayload{Message: "hi", Sender: "Alice"}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}
	if err := (&ChatPayload{Sender: "Alice"}).Validate(); !errors.Is(err, ErrMissingField) {
		t.Error("empty message accepted")
	}
}

// Signaling bodies must survive the hub byte-for-byte: an SDP blob is
// decoded only by the peers, never by the relay.
func TestSignalPayloadDataStaysRaw(t *testing.T) {
	raw := []byte(`{"event":"signal","data":{"to":"s1","data":{"type":"offer","sdp":"v=0\r\no=- 1 1 IN IP4 0.0.0.0"}}}`)

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("envelope decode failed: %v", err)
	}
	var p SignalPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}

	forwarded, err := json.Marshal(SignalForward{From: "f1", Data: p.Data})
	if err != nil {
		t.Fatalf("forward encode failed: %v", err)
	}

	var out struct {
		From string          `json:"from"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(forwarded, &out); err != nil {
		t.Fatalf("forward decode failed: %v", err)
	}
	if string(out.Data) != string(p.Data) {
		t.Errorf("signal body altered in transit:\n in: %s\nout: %s", p.Data, out.Data)
	}
}

func TestEnvelopeOmitsEmptyData(t *testing.T) {
	frame, err := json.Marshal(Envelope{Event: "student-heartbeat"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if string(frame) != `{"event":"student-heartbeat"}` {
		t.Errorf("unexpected frame: %s", frame)
	}
}
