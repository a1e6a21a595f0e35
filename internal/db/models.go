package db

import (
	"encoding/json"
	"time"
)

// DedupRun maps collate.dedup_runs, one row per engine invocation.
type DedupRun struct {
	RunID            int64           `gorm:"column:run_id;primaryKey;autoIncrement"`
	DedupRunUUID     string          `gorm:"column:dedup_run_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Source           string          `gorm:"column:source;type:text;not null"`
	InputCount       int             `gorm:"column:input_count;type:integer;not null;default:0"`
	OutputCount      int             `gorm:"column:output_count;type:integer;not null;default:0"`
	ReductionPercent float64         `gorm:"column:reduction_percent;type:double precision;not null;default:0"`
	ClusterCount     int             `gorm:"column:cluster_count;type:integer;not null;default:0"`
	Partial          bool            `gorm:"column:partial;type:boolean;not null;default:false"`
	PhaseStats       json.RawMessage `gorm:"column:phase_stats;type:jsonb"`
	StartedAt        time.Time       `gorm:"column:started_at;type:timestamptz;not null"`
	FinishedAt       time.Time       `gorm:"column:finished_at;type:timestamptz;not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (DedupRun) TableName() string { return "collate.dedup_runs" }

// NoteDecision maps collate.note_decisions, one row per input note per
// run, mirroring the engine's decision ledger.
type NoteDecision struct {
	NoteDecisionID   int64           `gorm:"column:note_decision_id;primaryKey;autoIncrement"`
	NoteDecisionUUID string          `gorm:"column:note_decision_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	RunID            int64           `gorm:"column:run_id;type:bigint;not null;index"`
	NoteID           string          `gorm:"column:note_id;type:text;not null"`
	Phase            string          `gorm:"column:phase;type:text;not null"`
	Action           string          `gorm:"column:action;type:text;not null"`
	KeptNoteID       *string         `gorm:"column:kept_note_id;type:text"`
	Score            json.RawMessage `gorm:"column:score;type:jsonb"`
	CreatedAt        time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (NoteDecision) TableName() string { return "collate.note_decisions" }

func autoMigrateModels() []any {
	return []any{
		&DedupRun{},
		&NoteDecision{},
	}
}
