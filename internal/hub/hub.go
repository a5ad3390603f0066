package hub

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"proctorhub/internal/broadcast"
	"proctorhub/internal/quiz"
	"proctorhub/internal/registry"
	"proctorhub/internal/relay"
	"proctorhub/pkg/interfaces"
	"proctorhub/pkg/types"
)

// Coordinator implements the join/ready/leave protocol and dispatches every
// inbound hub event. Handlers run on the calling connection's read
// goroutine; with one read loop per sender and one write loop per
// recipient, events from a given sender to a given recipient arrive in the
// order they were issued.
type Coordinator struct {
	registry  *registry.Registry
	relay     *relay.Engine
	broadcast *broadcast.Engine
	quiz      *quiz.Adapter
	limiter   *ChatLimiter
}

// NewCoordinator wires the lifecycle coordinator over its engines.
func NewCoordinator(reg *registry.Registry, rel *relay.Engine, bc *broadcast.Engine, qa *quiz.Adapter) *Coordinator {
	return &Coordinator{
		registry:  reg,
		relay:     rel,
		broadcast: bc,
		quiz:      qa,
		limiter:   NewChatLimiter(),
	}
}

// HandleEvent parses one inbound frame and routes it by event name. Bad
// input never escalates: a malformed or misaddressed event is logged and
// dropped, and the connection is left untouched.
func (c *Coordinator) HandleEvent(connID string, sender interfaces.Sender, raw []byte) {
	var env types.Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
		log.Warn().Str("module", "hub").Str("conn", connID).Msg("unparseable frame dropped")
		return
	}

	var err error
	switch env.Event {
	case types.EventJoinStudent:
		err = c.handleJoin(connID, sender, env.Data, types.RoleStudent)
	case types.EventStudentReady:
		err = c.handleStudentReady(connID, sender, env.Data)
	case types.EventJoinFaculty:
		err = c.handleJoinFaculty(connID, sender, env.Data)
	case types.EventSignal:
		err = c.handleSignal(connID, env.Data)
	case types.EventChatToAll, types.EventChatToAllFaculty:
		err = c.handleChat(connID, env.Data)
	case types.EventStudentHeartbeat:
		err = c.handleHeartbeat(connID)
	case types.EventStudentVideo:
		err = c.handleVideoToggle(connID, env.Data)
	case types.EventStudentAudio:
		err = c.handleAudioToggle(connID, env.Data)
	case types.EventStudentTabStatus:
		err = c.handleTabStatus(connID, env.Data)
	case types.EventPublishPaper:
		err = c.handlePublishPaper(env.Data)
	default:
		err = ErrUnknownEvent
	}

	if err != nil {
		log.Debug().Err(err).Str("module", "hub").Str("conn", connID).
			Str("event", env.Event).Msg("event ignored")
	}
}

// Disconnect removes the connection on transport-level close. Removal is
// idempotent; only the call that actually removed a student emits
// student-left, so faculty never see a duplicate departure.
func (c *Coordinator) Disconnect(connID string) {
	c.limiter.Forget(connID)

	rec, removed := c.registry.Remove(connID)
	if !removed {
		return
	}

	log.Info().Str("module", "hub").Str("conn", connID).
		Str("role", string(rec.Role)).Str("user", rec.UserID).Msg("disconnected")

	if rec.Role == types.RoleStudent {
		c.broadcast.ToRole(types.RoleFaculty, types.EventStudentLeft, types.StudentLeftNotice{
			SocketID: connID,
			UserID:   rec.UserID,
		})
	}
}

// handleJoin registers the connection under the given role. A repeated join
// on the same connection id overwrites the stale record.
func (c *Coordinator) handleJoin(connID string, sender interfaces.Sender, data json.RawMessage, role types.Role) error {
	var p types.JoinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ErrMalformedPayload
	}
	if err := p.Validate(); err != nil {
		return ErrMalformedPayload
	}

	c.registry.Register(connID, role, p.UserID, p.Name, sender)
	log.Info().Str("module", "hub").Str("conn", connID).Str("role", string(role)).
		Str("user", p.UserID).Str("name", p.Name).Msg("joined")
	return nil
}

// handleStudentReady announces a media-ready student to every faculty
// connection, and every faculty connection to the student. Both sides are
// told because either may initiate the negotiation offer.
func (c *Coordinator) handleStudentReady(connID string, sender interfaces.Sender, data json.RawMessage) error {
	var p types.JoinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ErrMalformedPayload
	}
	if err := p.Validate(); err != nil {
		return ErrMalformedPayload
	}

	conn, ok := c.registry.Get(connID)
	if !ok {
		return ErrUnknownConnection
	}
	if conn.Role != types.RoleStudent {
		return ErrWrongRole
	}

	faculty := c.registry.Targets(registry.Group{Role: types.RoleFaculty})
	for _, f := range faculty {
		if err := f.Sender.Send(types.EventStudentReady, types.StudentReadyNotice{
			UserID:   p.UserID,
			Name:     p.Name,
			SocketID: connID,
		}); err != nil {
			log.Debug().Err(err).Str("module", "hub").Str("conn", f.ConnID).
				Msg("student-ready notify failed")
		}
		if err := sender.Send(types.EventFacultyAvailable, types.FacultyAvailableNotice{
			FacultySocketID: f.ConnID,
			FacultyName:     f.Name,
		}); err != nil {
			log.Debug().Err(err).Str("module", "hub").Str("conn", connID).
				Msg("faculty-available notify failed")
		}
	}

	log.Info().Str("module", "hub").Str("conn", connID).Str("user", p.UserID).
		Int("faculty_notified", len(faculty)).Msg("student ready")
	return nil
}

// handleJoinFaculty registers the faculty connection and immediately
// returns the current student snapshot, so a faculty that joins after
// students are already ready misses nobody.
func (c *Coordinator) handleJoinFaculty(connID string, sender interfaces.Sender, data json.RawMessage) error {
	if err := c.handleJoin(connID, sender, data, types.RoleFaculty); err != nil {
		return err
	}

	students := c.registry.ListByRole(types.RoleStudent)
	active := make([]types.ActiveStudent, 0, len(students))
	for _, s := range students {
		active = append(active, types.ActiveStudent{
			Name:     s.DisplayName,
			SocketID: s.ConnID,
			UserID:   s.UserID,
		})
	}
	if err := sender.Send(types.EventActiveStudents, active); err != nil {
		log.Debug().Err(err).Str("module", "hub").Str("conn", connID).
			Msg("active-students send failed")
	}
	return nil
}

// handleSignal forwards an opaque negotiation payload. The body is never
// decoded; offers, answers and candidates all take the same path.
func (c *Coordinator) handleSignal(connID string, data json.RawMessage) error {
	var p types.SignalPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ErrMalformedPayload
	}
	if err := p.Validate(); err != nil {
		return ErrMalformedPayload
	}

	c.relay.Relay(connID, p.To, p.Data)
	return nil
}

// handleChat fans a chat message out to both roles under one snapshot:
// every student (the sender included, if a student) and every faculty
// connection except the sender's own.
func (c *Coordinator) handleChat(connID string, data json.RawMessage) error {
	var p types.ChatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ErrMalformedPayload
	}
	if err := p.Validate(); err != nil {
		return ErrMalformedPayload
	}

	if !c.limiter.Allow(connID) {
		return ErrRateLimited
	}

	c.broadcast.Fan(types.EventChatMessage,
		types.ChatMessage{Message: p.Message, Sender: p.Sender},
		registry.Group{Role: types.RoleStudent},
		registry.Group{Role: types.RoleFaculty, Exclude: connID},
	)
	return nil
}

// handleHeartbeat records liveness and mirrors it to faculty. The hub only
// reports lastActive; it never expires a connection itself. Only the
// transport-level close removes one.
func (c *Coordinator) handleHeartbeat(connID string) error {
	now := time.Now()
	conn, ok := c.registry.Touch(connID, now)
	if !ok {
		return ErrUnknownConnection
	}
	if conn.Role != types.RoleStudent {
		return ErrWrongRole
	}

	c.broadcast.ToRole(types.RoleFaculty, types.EventStudentStatus, types.StudentStatusNotice{
		SocketID:   connID,
		Name:       conn.DisplayName,
		LastActive: now.UnixMilli(),
	})
	return nil
}

func (c *Coordinator) handleVideoToggle(connID string, data json.RawMessage) error {
	var p types.VideoTogglePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ErrMalformedPayload
	}
	if p.UserID == "" || p.Name == "" {
		return ErrMalformedPayload
	}

	if err := c.updateStudent(connID, types.StatusUpdate{VideoOn: &p.VideoOn}); err != nil {
		return err
	}
	c.broadcast.ToRole(types.RoleFaculty, types.EventStudentVideo, types.VideoToggleNotice{
		SocketID: connID,
		UserID:   p.UserID,
		Name:     p.Name,
		VideoOn:  p.VideoOn,
	})
	return nil
}

func (c *Coordinator) handleAudioToggle(connID string, data json.RawMessage) error {
	var p types.AudioTogglePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ErrMalformedPayload
	}
	if p.UserID == "" || p.Name == "" {
		return ErrMalformedPayload
	}

	if err := c.updateStudent(connID, types.StatusUpdate{AudioOn: &p.AudioOn}); err != nil {
		return err
	}
	c.broadcast.ToRole(types.RoleFaculty, types.EventStudentAudio, types.AudioToggleNotice{
		SocketID: connID,
		UserID:   p.UserID,
		Name:     p.Name,
		AudioOn:  p.AudioOn,
	})
	return nil
}

func (c *Coordinator) handleTabStatus(connID string, data json.RawMessage) error {
	var p types.TabStatusPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ErrMalformedPayload
	}
	if p.UserID == "" || p.Name == "" {
		return ErrMalformedPayload
	}

	if err := c.updateStudent(connID, types.StatusUpdate{TabVisible: &p.Visible}); err != nil {
		return err
	}
	c.broadcast.ToRole(types.RoleFaculty, types.EventStudentTabStatus, types.TabStatusNotice{
		SocketID: connID,
		Name:     p.Name,
		Visible:  p.Visible,
	})
	return nil
}

// handlePublishPaper pushes an externally persisted paper to students. The
// paper arrives already created by the store; the hub only fans it out.
func (c *Coordinator) handlePublishPaper(data json.RawMessage) error {
	var paper types.Paper
	if err := json.Unmarshal(data, &paper); err != nil {
		return ErrMalformedPayload
	}
	if paper.ID == "" || len(paper.Questions) == 0 {
		return ErrMalformedPayload
	}

	c.quiz.PublishPaper(&paper)
	return nil
}

// updateStudent applies a status update iff connID is a registered
// student. Status fields only exist on student records.
func (c *Coordinator) updateStudent(connID string, upd types.StatusUpdate) error {
	conn, ok := c.registry.Get(connID)
	if !ok {
		return ErrUnknownConnection
	}
	if conn.Role != types.RoleStudent {
		return ErrWrongRole
	}
	c.registry.UpdateStatus(connID, upd)
	return nil
}
