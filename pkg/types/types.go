package types

import (
	"time"
)

// Role of a live connection. A connection holds exactly one role for its
// whole lifetime; a reconnecting participant gets a fresh connection id.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleFaculty
}

// Connection is the registry's record for one live transport session.
// The registry owns these for their lifetime; accessors hand out copies.
// The proctoring status fields are only ever set for students.
type Connection struct {
	ConnID       string     `json:"socketId"`
	Role         Role       `json:"role"`
	UserID       string     `json:"userId"`
	DisplayName  string     `json:"name"`
	JoinedAt     time.Time  `json:"joinedAt"`
	LastActiveAt *time.Time `json:"lastActiveAt,omitempty"`
	VideoOn      *bool      `json:"videoOn,omitempty"`
	AudioOn      *bool      `json:"audioOn,omitempty"`
	TabVisible   *bool      `json:"tabVisible,omitempty"`
}

// StatusUpdate carries the transient fields a status event may mutate.
// Nil fields are left untouched.
type StatusUpdate struct {
	LastActiveAt *time.Time
	VideoOn      *bool
	AudioOn      *bool
	TabVisible   *bool
}

// Question is one multiple-choice question of a paper. CorrectAnswer is an
// index into Options.
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// Paper is a published question paper. Immutable once created.
type Paper struct {
	ID        string     `json:"id"`
	FacultyID string     `json:"facultyId"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Submission is one student's answer sheet for a paper. Answers are option
// indexes positionally matching the paper's questions; a nil entry means
// the question was skipped. Score is computed once at creation.
type Submission struct {
	ID          string    `json:"id"`
	PaperID     string    `json:"paperId"`
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	Answers     []*int    `json:"answers"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// LeaderboardEntry is one row of a paper's leaderboard, ordered by score.
type LeaderboardEntry struct {
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submittedAt"`
}
