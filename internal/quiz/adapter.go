package quiz

import (
	"github.com/rs/zerolog/log"

	"proctorhub/internal/broadcast"
	"proctorhub/pkg/types"
)

// Score counts the questions whose submitted option index matches the
// paper's correct answer. A nil answer is a skipped question and scores
// nothing; extra trailing answers are ignored.
func Score(paper *types.Paper, answers []*int) int {
	score := 0
	for i, q := range paper.Questions {
		if i >= len(answers) || answers[i] == nil {
			continue
		}
		if *answers[i] == q.CorrectAnswer {
			score++
		}
	}
	return score
}

// Adapter turns durable quiz-store results into live hub notifications.
// Both directions are fire-and-forget: the store is the source of truth
// and absent recipients simply re-fetch over HTTP.
type Adapter struct {
	broadcast *broadcast.Engine
}

// NewAdapter creates a quiz fan-out adapter over the broadcast engine.
func NewAdapter(b *broadcast.Engine) *Adapter {
	return &Adapter{broadcast: b}
}

// PublishPaper pushes an already-persisted paper to every student. Must
// only be called after the store write succeeded.
func (a *Adapter) PublishPaper(paper *types.Paper) {
	log.Info().Str("module", "quiz").Str("paper", paper.ID).
		Str("title", paper.Title).Msg("publishing paper to students")
	a.broadcast.ToRole(types.RoleStudent, types.EventNewPaper, paper)
}

// ReportSubmission pushes a scored submission to every faculty connection
// as a leaderboard update.
func (a *Adapter) ReportSubmission(sub *types.Submission) {
	upd := types.LeaderboardUpdate{
		StudentID:   sub.StudentID,
		StudentName: sub.StudentName,
		PaperID:     sub.PaperID,
		Score:       sub.Score,
		SubmittedAt: sub.SubmittedAt.UnixMilli(),
	}
	log.Info().Str("module", "quiz").Str("paper", sub.PaperID).
		Str("student", sub.StudentID).Int("score", sub.Score).
		Msg("reporting submission to faculty")
	a.broadcast.ToRole(types.RoleFaculty, types.EventLeaderboardUpdate, upd)
}
