package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	vs "voltage_sweeper"
)

type ProfileSQLite struct {
	db *sql.DB
}

func NewProfileSQLite(db *sql.DB) *ProfileSQLite { return &ProfileSQLite{db: db} }

var _ ProfileRepo = (*ProfileSQLite)(nil)

// ErrProfileNotFound is returned for an unknown profile id.
var ErrProfileNotFound = errors.New("sweep profile not found")

const (
	upsertProfileSQL = `
		INSERT INTO sweep_profiles (id, name, settings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			settings=excluded.settings,
			updated_at=excluded.updated_at
	`

	selectProfileSQL = `
		SELECT id, name, settings, created_at, updated_at
		FROM sweep_profiles WHERE id=?
	`

	listProfilesSQL = `
		SELECT id, name, settings, created_at, updated_at
		FROM sweep_profiles ORDER BY name ASC
	`

	deleteProfileSQL = `DELETE FROM sweep_profiles WHERE id=?`
)

func (r *ProfileSQLite) Save(ctx context.Context, p vs.Profile) error {
	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return fmt.Errorf("marshal profile settings: %w", err)
	}
	_, err = r.db.ExecContext(ctx, upsertProfileSQL,
		p.ID, p.Name, string(settings), p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save profile %q: %w", p.Name, err)
	}
	return nil
}

func (r *ProfileSQLite) Get(ctx context.Context, id string) (vs.Profile, error) {
	row := r.db.QueryRowContext(ctx, selectProfileSQL, id)
	p, err := scanProfile(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vs.Profile{}, ErrProfileNotFound
		}
		return vs.Profile{}, fmt.Errorf("select profile %q: %w", id, err)
	}
	return p, nil
}

func (r *ProfileSQLite) List(ctx context.Context) ([]vs.Profile, error) {
	rows, err := r.db.QueryContext(ctx, listProfilesSQL)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := make([]vs.Profile, 0, 16)
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProfileSQLite) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteProfileSQL, id)
	if err != nil {
		return fmt.Errorf("delete profile %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func scanProfile(scan func(dest ...any) error) (vs.Profile, error) {
	var (
		p           vs.Profile
		settingsStr string
	)
	if err := scan(&p.ID, &p.Name, &settingsStr, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return vs.Profile{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	if err := json.Unmarshal([]byte(settingsStr), &p.Settings); err != nil {
		return vs.Profile{}, fmt.Errorf("unmarshal settings for profile %q: %w", p.ID, err)
	}
	return p, nil
}
