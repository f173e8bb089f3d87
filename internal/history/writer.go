package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scriptorium/internal/domain"
)

// Writer appends immutable entries to the task history ledger. Entries are
// only ever inserted, never updated or removed; ordering is the insertion
// order of the surrounding transaction.
type Writer struct {
	Now func() time.Time
}

// Append writes one ledger entry inside the caller's transaction and
// returns it with its assigned sequence number. Fields already validated by
// the engine are stored as-is.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, e domain.HistoryEntry) (domain.HistoryEntry, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp == "" {
		e.Timestamp = now().UTC().Format(time.RFC3339)
	}
	var prev any
	if e.PreviousStatus != nil {
		prev = string(*e.PreviousStatus)
	}
	var comment any
	if e.Comment != "" {
		comment = e.Comment
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO task_history(id,task_id,action,actor_id,actor_name,ts,previous_status,new_status,comment) VALUES (?,?,?,?,?,?,?,?,?)`,
		e.ID, e.TaskID, string(e.Action), e.ActorID, e.ActorName, e.Timestamp, prev, string(e.NewStatus), comment)
	if err != nil {
		return e, fmt.Errorf("append history: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return e, err
	}
	e.Seq = seq
	return e, nil
}
