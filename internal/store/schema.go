package store

import (
	"context"

	entdialect "entgo.io/ent/dialect/entsql"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared by the repositories.
const (
	tableMastery   = "mastery_records"
	tableSessions  = "sessions"
	tableProfiles  = "profiles"
	tableQuestions = "questions"
	tableAnswers   = "answer_events"
)

var (
	masteryColumns = []*schema.Column{
		{Name: "learner_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "topic_id", Type: field.TypeString, Default: ""},
		{Name: "attempts", Type: field.TypeInt, Default: 0},
		{Name: "correct_attempts", Type: field.TypeInt, Default: 0},
		{Name: "incorrect_attempts", Type: field.TypeInt, Default: 0},
		{Name: "correct_streak", Type: field.TypeInt, Default: 0},
		{Name: "confidence", Type: field.TypeFloat64, Default: 0},
		{Name: "level", Type: field.TypeString},
		{Name: "easiness_factor", Type: field.TypeFloat64},
		{Name: "interval_days", Type: field.TypeInt},
		{Name: "review_count", Type: field.TypeInt, Default: 0},
		{Name: "last_attempt_at", Type: field.TypeTime, Nullable: true},
		{Name: "next_review_at", Type: field.TypeTime, Nullable: true},
		{Name: "avg_response_seconds", Type: field.TypeFloat64, Default: 0},
		{Name: "total_time_seconds", Type: field.TypeFloat64, Default: 0},
	}
	masteryTable = &schema.Table{
		Name:       tableMastery,
		Columns:    masteryColumns,
		PrimaryKey: []*schema.Column{masteryColumns[0], masteryColumns[1]},
		Indexes: []*schema.Index{
			{Name: "masteryrecord_learner_id_topic_id", Columns: []*schema.Column{masteryColumns[0], masteryColumns[2]}},
			{Name: "masteryrecord_learner_id_next_review_at", Columns: []*schema.Column{masteryColumns[0], masteryColumns[13]}},
		},
	}

	sessionColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "kind", Type: field.TypeString},
		{Name: "topic_id", Type: field.TypeString, Default: ""},
		{Name: "status", Type: field.TypeString},
		{Name: "planned", Type: field.TypeJSON},
		{Name: "answers", Type: field.TypeJSON},
		{Name: "answered_count", Type: field.TypeInt, Default: 0},
		{Name: "correct_count", Type: field.TypeInt, Default: 0},
		{Name: "time_limit_ms", Type: field.TypeInt64, Default: 0},
		{Name: "time_spent_ms", Type: field.TypeInt64, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "started_at", Type: field.TypeTime, Nullable: true},
		{Name: "resumed_at", Type: field.TypeTime, Nullable: true},
		{Name: "ended_at", Type: field.TypeTime, Nullable: true},
		{Name: "result", Type: field.TypeJSON, Nullable: true},
	}
	sessionTable = &schema.Table{
		Name:       tableSessions,
		Columns:    sessionColumns,
		PrimaryKey: []*schema.Column{sessionColumns[0]},
		Indexes: []*schema.Index{
			{Name: "session_learner_id_status", Columns: []*schema.Column{sessionColumns[1], sessionColumns[4]}},
			{Name: "session_status", Columns: []*schema.Column{sessionColumns[4]}},
			{
				Name:       "session_one_active",
				Unique:     true,
				Columns:    []*schema.Column{sessionColumns[1]},
				Annotation: &entdialect.IndexAnnotation{Where: "status IN ('not_started', 'in_progress', 'paused')"},
			},
		},
	}

	profileColumns = []*schema.Column{
		{Name: "learner_id", Type: field.TypeString},
		{Name: "total_points", Type: field.TypeInt, Default: 0},
		{Name: "level", Type: field.TypeInt, Default: 1},
		{Name: "updated_at", Type: field.TypeTime},
	}
	profileTable = &schema.Table{
		Name:       tableProfiles,
		Columns:    profileColumns,
		PrimaryKey: []*schema.Column{profileColumns[0]},
	}

	questionColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "topic_id", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeInt},
	}
	questionTable = &schema.Table{
		Name:       tableQuestions,
		Columns:    questionColumns,
		PrimaryKey: []*schema.Column{questionColumns[0]},
		Indexes: []*schema.Index{
			{Name: "question_topic_id_difficulty", Columns: []*schema.Column{questionColumns[1], questionColumns[2]}},
		},
	}

	answerColumns = []*schema.Column{
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "session_id", Type: field.TypeString},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "kind", Type: field.TypeString},
		{Name: "correct", Type: field.TypeBool},
		{Name: "first_answer", Type: field.TypeBool},
		{Name: "response_ms", Type: field.TypeInt64},
		{Name: "answered_at", Type: field.TypeTime},
	}
	answerTable = &schema.Table{
		Name:       tableAnswers,
		Columns:    answerColumns,
		PrimaryKey: []*schema.Column{answerColumns[0]},
		Indexes: []*schema.Index{
			{Name: "answerevent_session_id", Columns: []*schema.Column{answerColumns[1]}},
			{Name: "answerevent_learner_id", Columns: []*schema.Column{answerColumns[2]}},
		},
	}

	// Tables lists every table managed by the store.
	Tables = []*schema.Table{masteryTable, sessionTable, profileTable, questionTable, answerTable}
)

// migrate creates missing tables, columns and indexes.
func migrate(ctx context.Context, drv *entsql.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, Tables...)
}

// columnNames returns the names of cols in order.
func columnNames(cols []*schema.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
