// Package profile reads person profiles from the upstream SQLite database.
package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // registers the pure-Go "sqlite" driver

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/profile"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS people (
	id    TEXT PRIMARY KEY,
	name  TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS person_skills (
	person_id TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
	name      TEXT NOT NULL,
	level     TEXT NOT NULL DEFAULT '',
	years     REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS person_technologies (
	person_id TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
	name      TEXT NOT NULL,
	level     TEXT NOT NULL DEFAULT '',
	years     REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS person_education (
	person_id   TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
	institution TEXT NOT NULL DEFAULT '',
	degree      TEXT NOT NULL DEFAULT '',
	field       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_person_skills_person ON person_skills(person_id);
CREATE INDEX IF NOT EXISTS idx_person_technologies_person ON person_technologies(person_id);
CREATE INDEX IF NOT EXISTS idx_person_education_person ON person_education(person_id);
`

// Reader implements the upstream profile read interface on SQLite.
type Reader struct {
	db *sql.DB
}

// Open opens the database at dsn (":memory:" for an ephemeral one).
func Open(dsn string) (*Reader, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single connection: keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &Reader{db: db}, nil
}

// NewReader wraps an existing handle.
func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// Close closes the database.
func (r *Reader) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// Ping checks the database is reachable.
func (r *Reader) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// EnsureSchema creates the profile tables when missing.
func (r *Reader) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure profile schema: %w", err)
	}
	return nil
}

// FetchProfile loads one profile with its skills, technologies and education in insertion order.
func (r *Reader) FetchProfile(ctx context.Context, id string) (profile.Profile, error) {
	p := profile.Profile{ID: id}

	err := r.db.QueryRowContext(ctx,
		`SELECT name, email, notes FROM people WHERE id = ?`, id,
	).Scan(&p.Name, &p.Email, &p.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, domain.NewNotFound("profile", id)
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("fetch profile %s: %w", id, err)
	}

	if err := r.loadSkills(ctx, &p); err != nil {
		return profile.Profile{}, err
	}
	if err := r.loadTechnologies(ctx, &p); err != nil {
		return profile.Profile{}, err
	}
	if err := r.loadEducation(ctx, &p); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

// ListProfileIDs returns every profile id in ascending order.
func (r *Reader) ListProfileIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM people ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan profile id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return ids, nil
}

func (r *Reader) loadSkills(ctx context.Context, p *profile.Profile) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, level, years FROM person_skills WHERE person_id = ? ORDER BY rowid`, p.ID)
	if err != nil {
		return fmt.Errorf("load skills %s: %w", p.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s profile.Skill
		if err := rows.Scan(&s.Name, &s.Level, &s.Years); err != nil {
			return fmt.Errorf("scan skill: %w", err)
		}
		p.Skills = append(p.Skills, s)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load skills %s: %w", p.ID, err)
	}
	return nil
}

func (r *Reader) loadTechnologies(ctx context.Context, p *profile.Profile) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, level, years FROM person_technologies WHERE person_id = ? ORDER BY rowid`, p.ID)
	if err != nil {
		return fmt.Errorf("load technologies %s: %w", p.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t profile.Technology
		if err := rows.Scan(&t.Name, &t.Level, &t.Years); err != nil {
			return fmt.Errorf("scan technology: %w", err)
		}
		p.Technologies = append(p.Technologies, t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load technologies %s: %w", p.ID, err)
	}
	return nil
}

func (r *Reader) loadEducation(ctx context.Context, p *profile.Profile) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT institution, degree, field FROM person_education WHERE person_id = ? ORDER BY rowid`, p.ID)
	if err != nil {
		return fmt.Errorf("load education %s: %w", p.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e profile.Education
		if err := rows.Scan(&e.Institution, &e.Degree, &e.Field); err != nil {
			return fmt.Errorf("scan education: %w", err)
		}
		p.Education = append(p.Education, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load education %s: %w", p.ID, err)
	}
	return nil
}

// SaveProfile replaces a profile and its child rows in one transaction. Used to seed local databases.
func (r *Reader) SaveProfile(ctx context.Context, p *profile.Profile) (err error) {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"person_skills", "person_technologies", "person_education"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE person_id = ?`, p.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO people (id, name, email, notes) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email, notes = excluded.notes`,
		p.ID, p.Name, p.Email, p.Notes,
	); err != nil {
		return fmt.Errorf("upsert person %s: %w", p.ID, err)
	}
	for _, s := range p.Skills {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO person_skills (person_id, name, level, years) VALUES (?, ?, ?, ?)`,
			p.ID, s.Name, s.Level, s.Years,
		); err != nil {
			return fmt.Errorf("insert skill: %w", err)
		}
	}
	for _, t := range p.Technologies {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO person_technologies (person_id, name, level, years) VALUES (?, ?, ?, ?)`,
			p.ID, t.Name, t.Level, t.Years,
		); err != nil {
			return fmt.Errorf("insert technology: %w", err)
		}
	}
	for _, e := range p.Education {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO person_education (person_id, institution, degree, field) VALUES (?, ?, ?, ?)`,
			p.ID, e.Institution, e.Degree, e.Field,
		); err != nil {
			return fmt.Errorf("insert education: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit profile %s: %w", p.ID, err)
	}
	return nil
}
