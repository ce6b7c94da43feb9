package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"mindsy/internal/models"
)

var ErrNotFound = errors.New("record not found")

type JobRepo struct {
	db *DB
}

func NewJobRepo(db *DB) *JobRepo {
	return &JobRepo{db: db}
}

const jobColumns = `job_id, user_id, lecture_title, COALESCE(course_subject,''), study_node_id,
       status, input_type, COALESCE(audio_path,''), COALESCE(source_pdf_path,''),
       COALESCE(output_pdf_path,''), COALESCE(md_file_path,''), COALESCE(txt_file_path,''),
       COALESCE(duration_minutes,0), COALESCE(error_message,''), created_at, updated_at, completed_at`

func scanJob(row pgx.Row) (models.Job, error) {
	var j models.Job
	err := row.Scan(&j.JobID, &j.UserID, &j.LectureTitle, &j.CourseSubject, &j.StudyNodeID,
		&j.Status, &j.InputType, &j.AudioPath, &j.SourcePDFPath,
		&j.OutputPDFPath, &j.MDFilePath, &j.TXTFilePath,
		&j.DurationMins, &j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt)
	return j, err
}

func (r *JobRepo) Create(ctx context.Context, j models.Job) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO jobs (job_id, user_id, lecture_title, course_subject, study_node_id, status, input_type, audio_path, source_pdf_path)
VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, $7, NULLIF($8,''), NULLIF($9,''))`,
		j.JobID, j.UserID, j.LectureTitle, j.CourseSubject, j.StudyNodeID, j.Status, j.InputType, j.AudioPath, j.SourcePDFPath)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepo) GetByID(ctx context.Context, userID, jobID string) (models.Job, error) {
	j, err := scanJob(r.db.Pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE user_id=$1 AND job_id=$2`, userID, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Job{}, ErrNotFound
	}
	if err != nil {
		return models.Job{}, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// LatestByAudioPath resolves the job a generate request refers to: the most
// recently created job of this user holding the given source path.
func (r *JobRepo) LatestByAudioPath(ctx context.Context, userID, audioPath string) (models.Job, error) {
	j, err := scanJob(r.db.Pool.QueryRow(ctx, `
SELECT `+jobColumns+` FROM jobs
WHERE user_id=$1 AND (audio_path=$2 OR source_pdf_path=$2)
ORDER BY created_at DESC
LIMIT 1`, userID, audioPath))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Job{}, ErrNotFound
	}
	if err != nil {
		return models.Job{}, fmt.Errorf("latest job by path: %w", err)
	}
	return j, nil
}

type JobFilter struct {
	Status      string
	StudyNodeID string
	Query       string
	Limit       int
	Offset      int
}

func (r *JobRepo) List(ctx context.Context, userID string, f JobFilter) ([]models.Job, error) {
	where := []string{"user_id=$1"}
	args := []any{userID}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if f.StudyNodeID != "" {
		args = append(args, f.StudyNodeID)
		where = append(where, fmt.Sprintf("study_node_id=$%d", len(args)))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		where = append(where, fmt.Sprintf("(lecture_title ILIKE $%d OR course_subject ILIKE $%d)", len(args), len(args)))
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, f.Offset)
	q := fmt.Sprintf(`SELECT %s FROM jobs WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		jobColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	out := make([]models.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

func (r *JobRepo) UpdateStatus(ctx context.Context, userID, jobID string, status models.JobStatus, errorMessage string) error {
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE jobs SET status=$3, error_message=NULLIF($4,''), updated_at=NOW()
WHERE user_id=$1 AND job_id=$2`, userID, jobID, status, errorMessage)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *JobRepo) Complete(ctx context.Context, userID, jobID, pdfPath, mdPath, txtPath string, durationMins int) error {
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE jobs SET status='completed', output_pdf_path=$3, md_file_path=NULLIF($4,''), txt_file_path=NULLIF($5,''),
       duration_minutes=$6, error_message=NULL, completed_at=NOW(), updated_at=NOW()
WHERE user_id=$1 AND job_id=$2`, userID, jobID, pdfPath, mdPath, txtPath, durationMins)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *JobRepo) UpdateMeta(ctx context.Context, userID, jobID, title, subject string, studyNodeID *string) error {
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE jobs SET lecture_title=$3, course_subject=NULLIF($4,''), study_node_id=$5, updated_at=NOW()
WHERE user_id=$1 AND job_id=$2`, userID, jobID, title, subject, studyNodeID)
	if err != nil {
		return fmt.Errorf("update job meta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *JobRepo) UpdateOutputPDF(ctx context.Context, userID, jobID, pdfPath string) error {
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE jobs SET output_pdf_path=$3, updated_at=NOW()
WHERE user_id=$1 AND job_id=$2`, userID, jobID, pdfPath)
	if err != nil {
		return fmt.Errorf("update job output pdf: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the job and its note rows. Blob artifacts are the caller's
// responsibility since the repo has no storage handle.
func (r *JobRepo) Delete(ctx context.Context, userID, jobID string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM notes WHERE user_id=$1 AND job_id=$2`, userID, jobID)
	if err != nil {
		return fmt.Errorf("delete job notes: %w", err)
	}
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM jobs WHERE user_id=$1 AND job_id=$2`, userID, jobID)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
