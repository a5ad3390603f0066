package quiz

import (
	"sync"
	"testing"
	"time"

	"proctorhub/internal/broadcast"
	"proctorhub/internal/registry"
	"proctorhub/pkg/types"
)

type recordingSender struct {
	mu     sync.Mutex
	events []sentEvent
}

type sentEvent struct {
	event string
	data  any
}

func (s *recordingSender) Send(event string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, sentEvent{event: event, data: data})
	return nil
}

func (s *recordingSender) sent() []sentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentEvent(nil), s.events...)
}

func intp(v int) *int { return &v }

func threeQuestionPaper() *types.Paper {
	return &types.Paper{
		ID:    "p1",
		Title: "Quiz 1",
		Questions: []types.Question{
			{Text: "q1", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 0},
			{Text: "q2", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 1},
			{Text: "q3", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 1},
		},
	}
}

func TestScore(t *testing.T) {
	paper := threeQuestionPaper()

	cases := []struct {
		name    string
		answers []*int
		want    int
	}{
		{"all correct", []*int{intp(0), intp(1), intp(1)}, 3},
		{"two of three", []*int{intp(0), intp(1), intp(2)}, 2},
		{"all wrong", []*int{intp(3), intp(3), intp(3)}, 0},
		{"skipped questions score nothing", []*int{intp(0), nil, nil}, 1},
		{"no answers at all", nil, 0},
		{"short submission", []*int{intp(0)}, 1},
		{"extra answers ignored", []*int{intp(0), intp(1), intp(1), intp(2), intp(2)}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(paper, tc.answers); got != tc.want {
				t.Errorf("Score(%s) = %d, want %d", tc.name, got, tc.want)
			}
		})
	}
}

func TestAdapter_PublishPaperReachesStudentsOnly(t *testing.T) {
	reg := registry.NewRegistry()
	adapter := NewAdapter(broadcast.NewEngine(reg))

	student := &recordingSender{}
	faculty := &recordingSender{}
	reg.Register("s1", types.RoleStudent, "u1", "Alice", student)
	reg.Register("f1", types.RoleFaculty, "u2", "Prof", faculty)

	paper := threeQuestionPaper()
	adapter.PublishPaper(paper)

	events := student.sent()
	if len(events) != 1 || events[0].event != types.EventNewPaper {
		t.Fatalf("student: expected one new-question-paper, got %v", events)
	}
	if got := events[0].data.(*types.Paper); got.ID != "p1" {
		t.Errorf("wrong paper forwarded: %+v", got)
	}
	if len(faculty.sent()) != 0 {
		t.Error("faculty must not receive published papers")
	}
}

func TestAdapter_ReportSubmissionReachesFacultyOnly(t *testing.T) {
	reg := registry.NewRegistry()
	adapter := NewAdapter(broadcast.NewEngine(reg))

	student := &recordingSender{}
	faculty := &recordingSender{}
	reg.Register("s1", types.RoleStudent, "u1", "Alice", student)
	reg.Register("f1", types.RoleFaculty, "u2", "Prof", faculty)

	submittedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	adapter.ReportSubmission(&types.Submission{
		ID:          "sub1",
		PaperID:     "p1",
		StudentID:   "u1",
		StudentName: "Alice",
		Score:       2,
		SubmittedAt: submittedAt,
	})

	events := faculty.sent()
	if len(events) != 1 || events[0].event != types.EventLeaderboardUpdate {
		t.Fatalf("faculty: expected one leaderboard-update, got %v", events)
	}
	upd := events[0].data.(types.LeaderboardUpdate)
	if upd.StudentID != "u1" || upd.PaperID != "p1" || upd.Score != 2 {
		t.Errorf("bad update %+v", upd)
	}
	if upd.SubmittedAt != submittedAt.UnixMilli() {
		t.Errorf("timestamp not unix millis: %d", upd.SubmittedAt)
	}
	if len(student.sent()) != 0 {
		t.Error("students must not receive leaderboard updates")
	}
}
