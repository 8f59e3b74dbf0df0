package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaAuditor reconciles the persisted table shape with the current model
// definitions at startup. Earlier schema generations used camelCase column
// names; the auditor renames those in place before AutoMigrate runs, so
// AutoMigrate adds genuinely missing columns instead of duplicating legacy
// ones. Safe to run on every process start.
type SchemaAuditor struct {
	pool *pgxpool.Pool
}

func NewSchemaAuditor(pool *pgxpool.Pool) *SchemaAuditor {
	return &SchemaAuditor{pool: pool}
}

// ColumnRename maps a legacy column name to its current snake_case name
type ColumnRename struct {
	Table   string
	Legacy  string
	Current string
}

// LegacyRenames lists every known legacy column spelling across the schema
func LegacyRenames() []ColumnRename {
	return []ColumnRename{
		{"interview_sessions", "jobPosition", "job_position"},
		{"interview_sessions", "companyName", "company_name"},
		{"interview_sessions", "interviewStage", "interview_stage"},
		{"interview_sessions", "interviewType", "interview_type"},
		{"interview_sessions", "experienceLevel", "experience_level"},
		{"interview_sessions", "currentQuestion", "current_question_index"},
		{"interview_sessions", "totalQuestions", "total_questions"},
		{"questions", "questionText", "question_text"},
		{"questions", "translatedText", "translated_text"},
		{"questions", "questionCategory", "category"},
		{"questions", "questionNumber", "sequence_number"},
		{"questions", "generatedBy", "generated_by"},
		{"responses", "responseText", "response_text"},
		{"responses", "audioUrl", "audio_url"},
		{"responses", "inputMode", "input_mode"},
		{"responses", "situationScore", "situation_score"},
		{"responses", "taskScore", "task_score"},
		{"responses", "actionScore", "action_score"},
		{"responses", "resultScore", "result_score"},
		{"responses", "flowScore", "flow_score"},
		{"responses", "overallScore", "overall_score"},
		{"responses", "evaluatedBy", "evaluated_by"},
		{"responses", "timeSpent", "time_spent_seconds"},
	}
}

// Audit applies every pending legacy rename. A rename is pending when the
// table exists, the legacy column is present and the current column is not.
func (a *SchemaAuditor) Audit(ctx context.Context) error {
	applied := 0
	for _, rename := range LegacyRenames() {
		pending, err := a.renamePending(ctx, rename)
		if err != nil {
			return fmt.Errorf("failed to inspect %s.%s: %w", rename.Table, rename.Legacy, err)
		}
		if !pending {
			continue
		}

		stmt := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
			QuoteIdent(rename.Table), QuoteIdent(rename.Legacy), QuoteIdent(rename.Current))
		if _, err := a.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to rename %s.%s: %w", rename.Table, rename.Legacy, err)
		}
		slog.Info("Renamed legacy column", "table", rename.Table, "from", rename.Legacy, "to", rename.Current)
		applied++
	}

	if applied == 0 {
		slog.Info("Schema audit complete, no legacy columns found")
	} else {
		slog.Info("Schema audit complete", "renamed_columns", applied)
	}
	return nil
}

func (a *SchemaAuditor) renamePending(ctx context.Context, rename ColumnRename) (bool, error) {
	legacyExists, err := a.columnExists(ctx, rename.Table, rename.Legacy)
	if err != nil {
		return false, err
	}
	if !legacyExists {
		return false, nil
	}

	currentExists, err := a.columnExists(ctx, rename.Table, rename.Current)
	if err != nil {
		return false, err
	}
	if currentExists {
		// Both spellings present: AutoMigrate already created the current
		// column, so the legacy one is dead data and renaming would collide
		slog.Warn("Legacy column coexists with current column, skipping rename", "table", rename.Table, "legacy", rename.Legacy, "current", rename.Current)
		return false, nil
	}
	return true, nil
}

func (a *SchemaAuditor) columnExists(ctx context.Context, table, column string) (bool, error) {
	var exists bool
	err := a.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2
		)`, table, column).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// QuoteIdent quotes a SQL identifier so mixed-case legacy names survive
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
