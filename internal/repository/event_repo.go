package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"thermal_guard/internal/models"
)

// sqliteTimeLayout sorts lexically, so range filters compare strings.
const sqliteTimeLayout = "2006-01-02 15:04:05.000"

const insertEventSQL = `
		INSERT INTO heater_events (id, occurred_at, channel, type, message, meta)
		VALUES (?, ?, ?, ?, ?, ?)
	`

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

// Append inserts a new event. If EventID or OccurredAt are empty, they’re set.
func (r *EventSQLite) Append(ctx context.Context, e models.HeaterEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		e.OccurredAt.UTC().Format(sqliteTimeLayout),
		strings.ToUpper(string(e.Channel)),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Description,
		metaPtr,
	)
	return err
}

// List returns events matching f, ordered ASC. From and To are inclusive.
func (r *EventSQLite) List(ctx context.Context, f EventFilter) ([]models.HeaterEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !f.From.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, f.From.UTC().Format(sqliteTimeLayout))
	}
	if !f.To.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, f.To.UTC().Format(sqliteTimeLayout))
	}
	if typ := strings.ToUpper(strings.TrimSpace(f.Type)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}
	if f.Channel != "" {
		conds = append(conds, "channel = ?")
		args = append(args, strings.ToUpper(string(f.Channel)))
	}

	q := `SELECT id, occurred_at, channel, type, message, meta FROM heater_events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.HeaterEvent, 0, 64)
	for rows.Next() {
		var (
			ev       models.HeaterEvent
			occurred string
			channel  string
			metaStr  sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &occurred, &channel, &ev.Type, &ev.Description, &metaStr); err != nil {
			return nil, err
		}
		ev.OccurredAt, err = time.Parse(sqliteTimeLayout, occurred)
		if err != nil {
			return nil, err
		}
		ev.Channel = models.ChannelID(channel)

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = metaStr.String // keep raw if malformed
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
