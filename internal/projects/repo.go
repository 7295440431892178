package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound means the project does not exist or is not owned by the caller.
var ErrNotFound = errors.New("project not found")

// Project is a named, owned bundle of text files. Files live in a single
// JSONB column as a flat name → content map; a file has no identity outside
// its project, deleting the project deletes everything.
type Project struct {
	PublicID  string            `json:"public_id"`
	Name      string            `json:"name"`
	Files     map[string]string `json:"files,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Create inserts a project for the user. A nil files map seeds the starter
// file set so a fresh project previews something immediately.
func (r *Repo) Create(ctx context.Context, userDBID, name string, files map[string]string) (*Project, error) {
	if name == "" {
		return nil, fmt.Errorf("name required")
	}
	if files == nil {
		files = DefaultFiles()
	}

	filesJSON, err := json.Marshal(files)
	if err != nil {
		return nil, fmt.Errorf("marshal files: %w", err)
	}

	for i := 0; i < 5; i++ {
		publicID, err := NewPublicID("cipher")
		if err != nil {
			return nil, err
		}

		const q = `
insert into projects (public_id, user_id, name, files)
values ($1, $2::uuid, $3, $4::jsonb)
returning public_id, name, created_at, updated_at;
`
		var p Project
		err = r.db.QueryRow(ctx, q, publicID, userDBID, name, string(filesJSON)).
			Scan(&p.PublicID, &p.Name, &p.CreatedAt, &p.UpdatedAt)

		if err == nil {
			p.Files = files
			return &p, nil
		}

		// unique violation on public_id → retry
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique project id")
}

// List returns the user's projects, newest first, without file contents.
func (r *Repo) List(ctx context.Context, userDBID string) ([]Project, error) {
	const q = `
select public_id, name, created_at, updated_at
from projects
where user_id = $1::uuid
order by created_at desc;
`
	rows, err := r.db.Query(ctx, q, userDBID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Project, 0, 16)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.PublicID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get returns one project including its files.
func (r *Repo) Get(ctx context.Context, userDBID, publicID string) (*Project, error) {
	const q = `
select public_id, name, files::text, created_at, updated_at
from projects
where user_id = $1::uuid and public_id = $2;
`
	var p Project
	var filesText string
	err := r.db.QueryRow(ctx, q, userDBID, publicID).
		Scan(&p.PublicID, &p.Name, &filesText, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(filesText), &p.Files); err != nil {
		return nil, fmt.Errorf("decode files: %w", err)
	}
	if p.Files == nil {
		p.Files = map[string]string{}
	}
	return &p, nil
}

// Rename updates the project's display name.
func (r *Repo) Rename(ctx context.Context, userDBID, publicID, newName string) (*Project, error) {
	const q = `
update projects
set name = $3, updated_at = now()
where user_id = $1::uuid and public_id = $2
returning public_id, name, created_at, updated_at;
`
	var p Project
	err := r.db.QueryRow(ctx, q, userDBID, publicID, newName).
		Scan(&p.PublicID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// SaveFiles replaces the whole files map. This is the persistence gateway's
// patch semantics: a full-document replace of the mutated field, never a
// merge, so the last writer wins.
func (r *Repo) SaveFiles(ctx context.Context, userDBID, publicID string, files map[string]string) error {
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("marshal files: %w", err)
	}

	const q = `
update projects
set files = $3::jsonb, updated_at = now()
where user_id = $1::uuid and public_id = $2;
`
	ct, err := r.db.Exec(ctx, q, userDBID, publicID, string(filesJSON))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the project and, with it, every file. No soft delete: a
// delete is an explicit, cascading destroy.
func (r *Repo) Delete(ctx context.Context, userDBID, publicID string) (bool, error) {
	const q = `
delete from projects
where user_id = $1::uuid and public_id = $2;
`
	ct, err := r.db.Exec(ctx, q, userDBID, publicID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
