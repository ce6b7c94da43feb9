package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mindsy/internal/models"
)

type NoteRepo struct {
	db *DB
}

func NewNoteRepo(db *DB) *NoteRepo {
	return &NoteRepo{db: db}
}

// Both schema generations are selected in one query; models.RawNoteRecord
// reconciles them. notes_column only exists on databases migrated from the
// first schema, so it is probed via to_jsonb rather than referenced directly.
const noteColumns = `note_id, job_id, user_id, COALESCE(title,''), COALESCE(content,''), COALESCE(cues,''),
       COALESCE(summary,''), COALESCE(to_jsonb(notes)->>'notes_column',''), COALESCE(transcript,''), created_at, updated_at`

func scanNote(row pgx.Row) (models.Note, error) {
	var raw models.RawNoteRecord
	err := row.Scan(&raw.NoteID, &raw.JobID, &raw.UserID, &raw.Title, &raw.Content, &raw.Cues,
		&raw.Summary, &raw.NotesColumn, &raw.Transcript, &raw.CreatedAt, &raw.UpdatedAt)
	if err != nil {
		return models.Note{}, err
	}
	return raw.Canonical(), nil
}

func (r *NoteRepo) Insert(ctx context.Context, n models.Note) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO notes (note_id, job_id, user_id, title, content, cues, summary, transcript)
VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), NULLIF($7,''), NULLIF($8,''))`,
		n.NoteID, n.JobID, n.UserID, n.Title, n.Content, n.Cues, n.Summary, n.Transcript)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (r *NoteRepo) GetByJob(ctx context.Context, userID, jobID string) (models.Note, error) {
	n, err := scanNote(r.db.Pool.QueryRow(ctx, `
SELECT `+noteColumns+` FROM notes
WHERE user_id=$1 AND job_id=$2
ORDER BY created_at DESC
LIMIT 1`, userID, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Note{}, ErrNotFound
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("get note by job: %w", err)
	}
	return n, nil
}

func (r *NoteRepo) UpdateContent(ctx context.Context, userID, jobID, content string) error {
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE notes SET content=$3, updated_at=NOW()
WHERE user_id=$1 AND job_id=$2`, userID, jobID, content)
	if err != nil {
		return fmt.Errorf("update note content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NoteRepo) SearchContent(ctx context.Context, userID, query string, limit int) ([]models.Note, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+noteColumns+` FROM notes
WHERE user_id=$1 AND (content ILIKE $2 OR title ILIKE $2)
ORDER BY updated_at DESC
LIMIT $3`, userID, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer rows.Close()

	out := make([]models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return out, nil
}
