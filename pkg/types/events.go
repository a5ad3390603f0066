package types

import "encoding/json"

// Inbound event names, as emitted by student and faculty clients.
const (
	EventJoinStudent       = "join-student"
	EventStudentReady      = "student-ready"
	EventJoinFaculty       = "join-faculty"
	EventSignal            = "signal"
	EventChatToAll         = "chat-to-all"
	EventChatToAllFaculty  = "chat-to-all-faculty"
	EventStudentHeartbeat  = "student-heartbeat"
	EventStudentVideo      = "student-video-toggle"
	EventStudentAudio      = "student-audio-toggle"
	EventStudentTabStatus  = "student-tab-status"
	EventPublishPaper      = "publish-question-paper"
)

// Outbound event names, as consumed by the dashboards.
const (
	EventActiveStudents    = "active-students"
	EventFacultyAvailable  = "faculty-available"
	EventStudentLeft       = "student-left"
	EventStudentStatus     = "student-status"
	EventChatMessage       = "chat-message"
	EventNewPaper          = "new-question-paper"
	EventLeaderboardUpdate = "leaderboard-update"
	// student-ready, signal and the three toggle events are echoed under
	// their inbound names.
)

// Envelope is the wire frame for every hub event, in both directions.
// Data stays raw until the event name says how to decode it; for relayed
// signaling it is never decoded at all.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinPayload is shared by join-student, student-ready and join-faculty.
type JoinPayload struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

func (p *JoinPayload) Validate() error {
	if p.UserID == "" || p.Name == "" {
		return ErrMissingField
	}
	return nil
}

// SignalPayload addresses an opaque negotiation blob to one connection.
// Data carries the offer/answer/candidate body untouched.
type SignalPayload struct {
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

func (p *SignalPayload) Validate() error {
	if p.To == "" || len(p.Data) == 0 {
		return ErrMissingField
	}
	return nil
}

// ChatPayload is shared by chat-to-all and chat-to-all-faculty.
type ChatPayload struct {
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

func (p *ChatPayload) Validate() error {
	if p.Message == "" || p.Sender == "" {
		return ErrMissingField
	}
	return nil
}

// VideoTogglePayload reports the student's camera state.
type VideoTogglePayload struct {
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	VideoOn bool   `json:"videoOn"`
}

// AudioTogglePayload reports the student's microphone state.
type AudioTogglePayload struct {
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	AudioOn bool   `json:"audioOn"`
}

// TabStatusPayload reports whether the exam tab is the visible one.
type TabStatusPayload struct {
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
}

// ActiveStudent is one entry of the active-students snapshot sent to a
// newly joined faculty connection.
type ActiveStudent struct {
	Name     string `json:"name"`
	SocketID string `json:"socketId"`
	UserID   string `json:"userId"`
}

// StudentReadyNotice tells faculty a student is ready to negotiate media.
type StudentReadyNotice struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	SocketID string `json:"socketId"`
}

// FacultyAvailableNotice tells a ready student which faculty connections
// may initiate an offer toward it.
type FacultyAvailableNotice struct {
	FacultySocketID string `json:"facultySocketId"`
	FacultyName     string `json:"facultyName"`
}

// SignalForward wraps a relayed payload with the originating connection id.
type SignalForward struct {
	From string          `json:"from"`
	Data json.RawMessage `json:"data"`
}

// StudentLeftNotice announces a student departure to faculty.
type StudentLeftNotice struct {
	SocketID string `json:"socketId"`
	UserID   string `json:"userId"`
}

// StudentStatusNotice carries a heartbeat update. LastActive is unix
// milliseconds; the dashboard derives "online" from it.
type StudentStatusNotice struct {
	SocketID   string `json:"socketId"`
	Name       string `json:"name"`
	LastActive int64  `json:"lastActive"`
}

// VideoToggleNotice mirrors a video toggle to faculty.
type VideoToggleNotice struct {
	SocketID string `json:"socketId"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	VideoOn  bool   `json:"videoOn"`
}

// AudioToggleNotice mirrors an audio toggle to faculty.
type AudioToggleNotice struct {
	SocketID string `json:"socketId"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	AudioOn  bool   `json:"audioOn"`
}

// TabStatusNotice mirrors a tab visibility change to faculty.
type TabStatusNotice struct {
	SocketID string `json:"socketId"`
	Name     string `json:"name"`
	Visible  bool   `json:"visible"`
}

// ChatMessage is the fan-out form of both chat events.
type ChatMessage struct {
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

// LeaderboardUpdate announces a fresh submission to faculty. SubmittedAt
// is unix milliseconds.
type LeaderboardUpdate struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	PaperID     string `json:"paperId"`
	Score       int    `json:"score"`
	SubmittedAt int64  `json:"submittedAt"`
}
