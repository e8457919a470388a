// Package sqlstore implementa regimens.Repository sobre database/sql.
// El mismo código sirve para postgres (pgx) y sqlite (modernc); sólo cambian
// los placeholders.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pill-reminder/internal/domain/regimens"
	"pill-reminder/internal/platform/dateutil"
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

func (d Dialect) gooseName() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite3"
}

// rebind reescribe los '?' como $1, $2... para postgres.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// querier lo cumplen *sql.DB y *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type RegimensRepo struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewRegimensRepo(db *sql.DB, dialect Dialect, now func() time.Time) *RegimensRepo {
	if now == nil {
		now = dateutil.SystemClock
	}
	return &RegimensRepo{db: db, dialect: dialect, now: now}
}

func (r *RegimensRepo) Add(ctx context.Context, p *regimens.PillRegimen) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return errors.New("regimen id required")
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, r.q(`SELECT 1 FROM pill_regimens WHERE external_id = ?`), p.ExternalID).Scan(&exists)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", regimens.ErrDuplicateExternalID, p.ExternalID)
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		if _, err := tx.ExecContext(ctx, r.q(`
			INSERT INTO pill_regimens (id, external_id, reminder_repeat_window_minutes, reminder_repeat_count)
			VALUES (?, ?, ?, ?)
		`), p.ID, p.ExternalID, p.ReminderRepeatWindowInMinutes, p.ReminderRepeatCount); err != nil {
			return fmt.Errorf("insert regimen: %w", err)
		}

		for _, d := range p.Dosages {
			if _, err := tx.ExecContext(ctx, r.q(`
				INSERT INTO dosages (id, regimen_id, job_id, dosage_hour, dosage_minute, response_last_captured_date)
				VALUES (?, ?, ?, ?, ?, ?)
			`), d.ID, p.ID, d.JobID, d.Time.Hour, d.Time.Minute, toNullDate(d.ResponseLastCapturedDate)); err != nil {
				return fmt.Errorf("insert dosage %s: %w", d.Time, err)
			}
			for i, m := range d.Medicines {
				if _, err := tx.ExecContext(ctx, r.q(`
					INSERT INTO medicines (dosage_id, position, name, start_date, end_date)
					VALUES (?, ?, ?, ?, ?)
				`), d.ID, i, m.Name, m.StartDate.Format(dateutil.Layout), m.EndDate.Format(dateutil.Layout)); err != nil {
					return fmt.Errorf("insert medicine %q: %w", m.Name, err)
				}
			}
		}
		return nil
	})
}

// Remove borra hijos explícitamente: sqlite no aplica ON DELETE CASCADE
// sin PRAGMA foreign_keys.
func (r *RegimensRepo) Remove(ctx context.Context, p *regimens.PillRegimen) error {
	if p == nil {
		return regimens.ErrNotFound
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.q(`
			DELETE FROM medicines
			WHERE dosage_id IN (SELECT id FROM dosages WHERE regimen_id = ?)
		`), p.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM dosages WHERE regimen_id = ?`), p.ID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, r.q(`DELETE FROM pill_regimens WHERE id = ?`), p.ID)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return regimens.ErrNotFound
		}
		return nil
	})
}

func (r *RegimensRepo) Get(ctx context.Context, id string) (*regimens.PillRegimen, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, regimens.ErrNotFound
	}
	return r.load(ctx, r.db, `WHERE id = ?`, id)
}

func (r *RegimensRepo) FindByExternalID(ctx context.Context, externalID string) (*regimens.PillRegimen, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, regimens.ErrNotFound
	}
	return r.load(ctx, r.db, `WHERE external_id = ?`, externalID)
}

func (r *RegimensRepo) List(ctx context.Context) ([]*regimens.PillRegimen, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM pill_regimens ORDER BY external_id ASC`)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// con sqlite hay una sola conexión: cerrar rows antes de cargar cada agregado
	out := make([]*regimens.PillRegimen, 0, len(ids))
	for _, id := range ids {
		p, err := r.load(ctx, r.db, `WHERE id = ?`, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *RegimensRepo) MedicinesFor(ctx context.Context, regimenID, dosageID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT m.name
		FROM medicines m
		JOIN dosages d ON d.id = m.dosage_id
		WHERE d.regimen_id = ? AND d.id = ?
		ORDER BY m.position ASC
	`), regimenID, dosageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// toda dosis tiene al menos un medicamento
	if len(out) == 0 {
		return nil, regimens.ErrNotFound
	}
	return out, nil
}

func (r *RegimensRepo) StopTodaysReminders(ctx context.Context, regimenID, dosageID string) error {
	today := dateutil.Today(r.now()).Format(dateutil.Layout)
	res, err := r.db.ExecContext(ctx, r.q(`
		UPDATE dosages
		SET response_last_captured_date = ?
		WHERE id = ? AND regimen_id = ?
	`), today, dosageID, regimenID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return regimens.ErrNotFound
	}
	return nil
}

func (r *RegimensRepo) load(ctx context.Context, q querier, where string, arg any) (*regimens.PillRegimen, error) {
	p := &regimens.PillRegimen{}
	err := q.QueryRowContext(ctx, r.q(`
		SELECT id, external_id, reminder_repeat_window_minutes, reminder_repeat_count
		FROM pill_regimens `+where), arg).Scan(
		&p.ID,
		&p.ExternalID,
		&p.ReminderRepeatWindowInMinutes,
		&p.ReminderRepeatCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, regimens.ErrNotFound
		}
		return nil, err
	}

	if err := r.loadDosages(ctx, q, p); err != nil {
		return nil, err
	}
	if err := r.loadMedicines(ctx, q, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *RegimensRepo) loadDosages(ctx context.Context, q querier, p *regimens.PillRegimen) error {
	rows, err := q.QueryContext(ctx, r.q(`
		SELECT id, job_id, dosage_hour, dosage_minute, response_last_captured_date
		FROM dosages
		WHERE regimen_id = ?
		ORDER BY dosage_hour ASC, dosage_minute ASC
	`), p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		d := &regimens.Dosage{}
		var captured sql.NullString
		if err := rows.Scan(&d.ID, &d.JobID, &d.Time.Hour, &d.Time.Minute, &captured); err != nil {
			return err
		}
		if captured.Valid {
			t, err := dateutil.ParseDate(captured.String, time.UTC)
			if err != nil {
				return fmt.Errorf("dosage %s: bad response_last_captured_date %q: %w", d.ID, captured.String, err)
			}
			d.ResponseLastCapturedDate = &t
		}
		p.Dosages = append(p.Dosages, d)
	}
	return rows.Err()
}

func (r *RegimensRepo) loadMedicines(ctx context.Context, q querier, p *regimens.PillRegimen) error {
	rows, err := q.QueryContext(ctx, r.q(`
		SELECT m.dosage_id, m.name, m.start_date, m.end_date
		FROM medicines m
		JOIN dosages d ON d.id = m.dosage_id
		WHERE d.regimen_id = ?
		ORDER BY m.dosage_id ASC, m.position ASC
	`), p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	byDosage := make(map[string]*regimens.Dosage, len(p.Dosages))
	for _, d := range p.Dosages {
		byDosage[d.ID] = d
	}

	for rows.Next() {
		var dosageID, name, start, end string
		if err := rows.Scan(&dosageID, &name, &start, &end); err != nil {
			return err
		}
		d, ok := byDosage[dosageID]
		if !ok {
			continue
		}
		m := regimens.Medicine{Name: name}
		if m.StartDate, err = dateutil.ParseDate(start, time.UTC); err != nil {
			return fmt.Errorf("medicine %q: bad start_date %q: %w", name, start, err)
		}
		if m.EndDate, err = dateutil.ParseDate(end, time.UTC); err != nil {
			return fmt.Errorf("medicine %q: bad end_date %q: %w", name, end, err)
		}
		d.Medicines = append(d.Medicines, m)
	}
	return rows.Err()
}

func (r *RegimensRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *RegimensRepo) q(query string) string {
	return r.dialect.rebind(query)
}

func toNullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateutil.Layout), Valid: true}
}
