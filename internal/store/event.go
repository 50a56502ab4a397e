package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/lernapp/internal/session"
)

// sequenceCounter manages the global monotonic sequence number of the
// answer log. Events are never reordered, so readers can page through the
// log by sequence.
//
// Uses raw SQL outside the builders because SQLite needs the RETURNING
// clause for an atomic increment. The mutex serializes within the process.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	LearnerID string    // optional
	SessionID string    // optional
	Limit     int       // max results (0 = unlimited)
	After     int64     // sequence > After
	From      time.Time // answered_at >= From
	To        time.Time // answered_at <= To
}

// AnswerRecord is a stored answer event with its sequence number.
type AnswerRecord struct {
	Sequence int64
	session.AnswerEvent
}

// AnswerLog is the append-only log of submitted answers. It implements
// session.EventLog.
type AnswerLog struct {
	db  *sql.DB
	seq *sequenceCounter
}

// AppendAnswer records one answer event.
func (l *AnswerLog) AppendAnswer(ctx context.Context, e session.AnswerEvent) error {
	seqNum, err := l.seq.Next(ctx)
	if err != nil {
		return err
	}

	query, args := builder().Insert(tableAnswers).
		Columns(columnNames(answerColumns)...).
		Values(
			seqNum, e.SessionID, e.LearnerID, e.QuestionID, string(e.Kind),
			e.Correct, e.First, e.ResponseTime.Milliseconds(), e.AnsweredAt.UTC(),
		).
		Query()
	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

// History returns the learner's latest answers, oldest first. An empty
// sessionID matches every session; limit <= 0 returns all.
func (l *AnswerLog) History(ctx context.Context, learnerID, sessionID string, limit int) ([]session.AnswerEvent, error) {
	recs, err := l.List(ctx, QueryOpts{LearnerID: learnerID, SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	out := make([]session.AnswerEvent, len(recs))
	for i, r := range recs {
		out[i] = r.AnswerEvent
	}
	return out, nil
}

// List returns events matching opts in sequence order.
func (l *AnswerLog) List(ctx context.Context, opts QueryOpts) ([]AnswerRecord, error) {
	var preds []*entsql.Predicate
	if opts.LearnerID != "" {
		preds = append(preds, entsql.EQ("learner_id", opts.LearnerID))
	}
	if opts.SessionID != "" {
		preds = append(preds, entsql.EQ("session_id", opts.SessionID))
	}
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}

	sel := builder().Select(columnNames(answerColumns)...).
		From(entsql.Table(tableAnswers)).
		OrderBy("sequence")
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	query, args := sel.Query()

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query answer events: %w", err)
	}
	defer rows.Close()

	var out []AnswerRecord
	for rows.Next() {
		var (
			rec  AnswerRecord
			kind string
			ms   int64
		)
		err := rows.Scan(
			&rec.Sequence, &rec.SessionID, &rec.LearnerID, &rec.QuestionID, &kind,
			&rec.Correct, &rec.First, &ms, &rec.AnsweredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan answer event: %w", err)
		}
		rec.Kind = session.Kind(kind)
		rec.ResponseTime = time.Duration(ms) * time.Millisecond
		rec.AnsweredAt = rec.AnsweredAt.UTC()

		// Time bounds are applied here; stored timestamps are text in SQLite.
		if !opts.From.IsZero() && rec.AnsweredAt.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && rec.AnsweredAt.After(opts.To) {
			continue
		}
		out = append(out, rec)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, rows.Err()
}
