package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"thermal_guard/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	upsertStateSQL = `
		INSERT INTO heater_state (channel, phase, temp_c, target_c, power, fault, fault_reason, fault_message, target_reached_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel) DO UPDATE SET
			phase=excluded.phase,
			temp_c=excluded.temp_c,
			target_c=excluded.target_c,
			power=excluded.power,
			fault=excluded.fault,
			fault_reason=excluded.fault_reason,
			fault_message=excluded.fault_message,
			target_reached_at=excluded.target_reached_at,
			updated_at=excluded.updated_at
	`

	selectStatesSQL = `
		SELECT channel, phase, temp_c, target_c, power, fault, fault_reason, fault_message, target_reached_at, updated_at
		FROM heater_state ORDER BY channel
	`
)

// Save upserts every state in one transaction.
func (r *StateSQLite) Save(ctx context.Context, states []models.HeaterState) error {
	if len(states) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin state transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, s := range states {
		updated := s.UpdatedAt
		if updated.IsZero() {
			updated = time.Now()
		}
		var reached *time.Time
		if !s.TargetReachedAt.IsZero() {
			t := s.TargetReachedAt.UTC()
			reached = &t
		}
		if _, err := tx.ExecContext(ctx, upsertStateSQL,
			string(s.Channel),
			string(s.Phase),
			s.CurrentTempC,
			s.TargetTempC,
			s.Power,
			s.Fault,
			string(s.FaultReason),
			s.FaultMessage,
			reached,
			updated.UTC(),
		); err != nil {
			return fmt.Errorf("save state of %s: %w", s.Channel, err)
		}
	}
	return tx.Commit()
}

// LoadAll returns the stored snapshots ordered by channel, empty when none
// were saved yet.
func (r *StateSQLite) LoadAll(ctx context.Context) ([]models.HeaterState, error) {
	rows, err := r.db.QueryContext(ctx, selectStatesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HeaterState
	for rows.Next() {
		var (
			s       models.HeaterState
			channel string
			phase   string
			reason  string
			reached sql.NullTime
		)
		if err := rows.Scan(
			&channel,
			&phase,
			&s.CurrentTempC,
			&s.TargetTempC,
			&s.Power,
			&s.Fault,
			&reason,
			&s.FaultMessage,
			&reached,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		s.Channel = models.ChannelID(channel)
		s.Phase = models.Phase(phase)
		s.FaultReason = models.Verdict(reason)
		if reached.Valid {
			s.TargetReachedAt = reached.Time.UTC()
		}
		s.UpdatedAt = s.UpdatedAt.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
