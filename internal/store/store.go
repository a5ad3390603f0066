package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"proctorhub/pkg/interfaces"
	"proctorhub/pkg/types"
)

// Store is the SQLite-backed quiz store. Reads run concurrently on the
// connection pool; all writes funnel through a single goroutine, which is
// the discipline SQLite wants and what keeps submissions from contending
// during an exam.
type Store struct {
	db           *sql.DB
	writeChannel chan writeOp
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex
}

type writeOp struct {
	fn     func(*sql.DB) error
	result chan error
}

var _ interfaces.QuizStore = (*Store)(nil)

// Open opens (and if needed creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &Store{
		db:           db,
		writeChannel: make(chan writeOp, 100),
		shutdown:     make(chan struct{}),
	}
	s.wg.Add(1)
	go s.writeLoop()

	log.Info().Str("module", "store").Str("path", path).Msg("quiz store opened")
	return s, nil
}

// writeLoop serializes all writes. A failed write is retried once after a
// short backoff before the error is reported to the caller.
func (s *Store) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case op := <-s.writeChannel:
			err := op.fn(s.db)
			if err != nil {
				log.Warn().Err(err).Str("module", "store").Msg("write failed, retrying")
				time.Sleep(time.Second)
				err = op.fn(s.db)
			}
			op.result <- err

		case <-s.shutdown:
			return
		}
	}
}

func (s *Store) executeWrite(ctx context.Context, fn func(*sql.DB) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	result := make(chan error, 1)
	select {
	case s.writeChannel <- writeOp{fn: fn, result: result}:
		select {
		case err := <-result:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	case <-time.After(30 * time.Second):
		return ErrWriteTimeout
	case <-ctx.Done():
		return ctx.Err()
	case <-s.shutdown:
		return ErrStoreClosed
	}
}

// CreatePaper persists a new paper. The store assigns the id and creation
// time; the paper is immutable afterwards.
func (s *Store) CreatePaper(ctx context.Context, paper *types.Paper) error {
	if paper.ID == "" {
		paper.ID = uuid.New().String()
	}
	if paper.CreatedAt.IsZero() {
		paper.CreatedAt = time.Now().UTC()
	}

	questionsJSON, err := json.Marshal(paper.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}

	return s.executeWrite(ctx, func(db *sql.DB) error {
		query := `
			INSERT INTO question_papers (id, faculty_id, title, questions, created_at)
			VALUES (?, ?, ?, ?, ?)
		`
		_, err := db.ExecContext(ctx, query,
			paper.ID,
			paper.FacultyID,
			paper.Title,
			string(questionsJSON),
			paper.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert paper: %w", err)
		}
		return nil
	})
}

// GetPaper retrieves one paper by id.
func (s *Store) GetPaper(ctx context.Context, paperID string) (*types.Paper, error) {
	query := `
		SELECT id, faculty_id, title, questions, created_at
		FROM question_papers
		WHERE id = ?
	`
	return s.scanPaper(s.db.QueryRowContext(ctx, query, paperID))
}

// GetLatestPaper retrieves the most recently created paper, or
// interfaces.ErrPaperNotFound when none exists yet.
func (s *Store) GetLatestPaper(ctx context.Context) (*types.Paper, error) {
	query := `
		SELECT id, faculty_id, title, questions, created_at
		FROM question_papers
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`
	return s.scanPaper(s.db.QueryRowContext(ctx, query))
}

func (s *Store) scanPaper(row *sql.Row) (*types.Paper, error) {
	var paper types.Paper
	var questionsJSON string

	err := row.Scan(
		&paper.ID,
		&paper.FacultyID,
		&paper.Title,
		&questionsJSON,
		&paper.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, interfaces.ErrPaperNotFound
		}
		return nil, fmt.Errorf("failed to query paper: %w", err)
	}

	if err := json.Unmarshal([]byte(questionsJSON), &paper.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	return &paper, nil
}

// CreateSubmission persists a scored submission. The store assigns the id
// and submission time.
func (s *Store) CreateSubmission(ctx context.Context, sub *types.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}

	answersJSON, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}

	return s.executeWrite(ctx, func(db *sql.DB) error {
		query := `
			INSERT INTO submissions (id, paper_id, student_id, student_name, answers, score, submitted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		_, err := db.ExecContext(ctx, query,
			sub.ID,
			sub.PaperID,
			sub.StudentID,
			sub.StudentName,
			string(answersJSON),
			sub.Score,
			sub.SubmittedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert submission: %w", err)
		}
		return nil
	})
}

// GetLeaderboard returns all submissions for a paper ordered by score
// descending, earliest submission first among ties.
func (s *Store) GetLeaderboard(ctx context.Context, paperID string) ([]types.LeaderboardEntry, error) {
	query := `
		SELECT student_id, student_name, score, submitted_at
		FROM submissions
		WHERE paper_id = ?
		ORDER BY score DESC, submitted_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, paperID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]types.LeaderboardEntry, 0)
	for rows.Next() {
		var e types.LeaderboardEntry
		if err := rows.Scan(&e.StudentID, &e.StudentName, &e.Score, &e.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard rows: %w", err)
	}
	return entries, nil
}

// HealthCheck validates database connectivity.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close shuts the write loop down and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.shutdown)
	s.wg.Wait()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
