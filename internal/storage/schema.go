package storage

import (
	"context"
	"fmt"
)

// EnsureSchema creates the tables the repos expect. Statements are idempotent
// so running it on every boot is safe, including against databases migrated
// from the first schema generation.
func EnsureSchema(ctx context.Context, db *DB) error {
	ddl := `
CREATE TABLE IF NOT EXISTS study_nodes (
  node_id UUID PRIMARY KEY,
  user_id TEXT NOT NULL,
  parent_id UUID REFERENCES study_nodes(node_id) ON DELETE SET NULL,
  name TEXT NOT NULL,
  node_type TEXT NOT NULL CHECK (node_type IN ('course','year','subject','semester','custom')),
  description TEXT,
  color TEXT,
  icon TEXT,
  pinned BOOLEAN NOT NULL DEFAULT FALSE,
  sort_order INT NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS jobs (
  job_id UUID PRIMARY KEY,
  user_id TEXT NOT NULL,
  lecture_title TEXT NOT NULL,
  course_subject TEXT,
  study_node_id UUID REFERENCES study_nodes(node_id) ON DELETE SET NULL,
  status TEXT NOT NULL CHECK (status IN ('uploading','processing','completed','failed')),
  input_type TEXT NOT NULL DEFAULT 'audio' CHECK (input_type IN ('audio','pdf')),
  audio_path TEXT,
  source_pdf_path TEXT,
  output_pdf_path TEXT,
  md_file_path TEXT,
  txt_file_path TEXT,
  duration_minutes INT,
  error_message TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS notes (
  note_id UUID PRIMARY KEY,
  job_id UUID NOT NULL REFERENCES jobs(job_id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  title TEXT,
  content TEXT,
  cues TEXT,
  summary TEXT,
  transcript TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS notifications (
  notification_id UUID PRIMARY KEY,
  user_id TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  kind TEXT NOT NULL,
  read BOOLEAN NOT NULL DEFAULT FALSE,
  link_job_id UUID,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS subscriptions (
  user_id TEXT PRIMARY KEY,
  tier TEXT NOT NULL DEFAULT 'free',
  stripe_customer_id TEXT,
  stripe_subscription_id TEXT,
  current_period_start TIMESTAMPTZ,
  current_period_end TIMESTAMPTZ,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_jobs_user_created ON jobs(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_jobs_user_status ON jobs(user_id, status);
CREATE INDEX IF NOT EXISTS idx_jobs_user_audio ON jobs(user_id, audio_path);
CREATE INDEX IF NOT EXISTS idx_notes_user_job ON notes(user_id, job_id);
CREATE INDEX IF NOT EXISTS idx_study_nodes_user_parent ON study_nodes(user_id, parent_id);
CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_subscriptions_customer ON subscriptions(stripe_customer_id);
`
	if _, err := db.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
