package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ward.fit/collate/internal/engine"
)

// RecordDedupRun inserts one run row plus its per-note decision rows.
// Insert-only: audit rows are never updated or deleted.
func (p *Pool) RecordDedupRun(ctx context.Context, source string, startedAt, finishedAt time.Time, result engine.Result) (int64, error) {
	if p == nil || p.gdb == nil {
		return 0, fmt.Errorf("database pool is not initialized")
	}

	statsJSON, err := json.Marshal(result.PhaseStats)
	if err != nil {
		return 0, fmt.Errorf("marshal phase stats: %w", err)
	}

	run := DedupRun{
		Source:           source,
		InputCount:       result.InputCount,
		OutputCount:      result.OutputCount,
		ReductionPercent: result.ReductionPercent,
		ClusterCount:     result.ClusterCount,
		Partial:          result.Partial,
		PhaseStats:       statsJSON,
		StartedAt:        startedAt.UTC(),
		FinishedAt:       finishedAt.UTC(),
	}

	tx := p.gdb.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, fmt.Errorf("begin audit transaction: %w", tx.Error)
	}

	if err := tx.Create(&run).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("insert dedup run: %w", err)
	}

	if len(result.Decisions) > 0 {
		decisions := make([]NoteDecision, 0, len(result.Decisions))
		for _, d := range result.Decisions {
			row := NoteDecision{
				RunID:  run.RunID,
				NoteID: d.NoteID,
				Phase:  d.Phase,
				Action: d.Action,
			}
			if d.KeptNoteID != "" {
				kept := d.KeptNoteID
				row.KeptNoteID = &kept
			}
			if d.Score != nil {
				scoreJSON, scoreErr := json.Marshal(d.Score)
				if scoreErr != nil {
					tx.Rollback()
					return 0, fmt.Errorf("marshal decision score: %w", scoreErr)
				}
				row.Score = scoreJSON
			}
			decisions = append(decisions, row)
		}
		if err := tx.CreateInBatches(decisions, 200).Error; err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("insert note decisions: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("commit audit transaction: %w", err)
	}

	return run.RunID, nil
}
