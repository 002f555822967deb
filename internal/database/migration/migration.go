package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is checked before migrating; the schema is applied only when it is absent.
const sentinelTable = "public.registration_requests"

var steps = []migrationStep{
	{
		Name: "create_table_registration_requests",
		SQL: `CREATE TABLE IF NOT EXISTS registration_requests (
  id                TEXT        PRIMARY KEY,
  company_id        TEXT,
  employee_id       TEXT        NOT NULL,
  full_name         TEXT        NOT NULL,
  national_id       TEXT,
  status            TEXT        NOT NULL DEFAULT 'pending'
                    CHECK (status IN ('pending', 'approved', 'rejected', 'id_generated', 'id_printed', 'id_collected')),
  documents         JSONB       NOT NULL DEFAULT '{}'::jsonb,
  flagged_documents JSONB       NOT NULL DEFAULT '[]'::jsonb,
  submission_date   TIMESTAMPTZ NOT NULL DEFAULT now(),
  review_date       TIMESTAMPTZ,
  reviewer_id       TEXT,
  rejection_reason  TEXT,
  printed           BOOLEAN     NOT NULL DEFAULT false,
  printed_at        TIMESTAMPTZ,
  generated_at      TIMESTAMPTZ,
  collected_at      TIMESTAMPTZ,
  collector_name    TEXT,
  CONSTRAINT chk_printed_status CHECK (NOT printed OR status IN ('id_printed', 'id_collected')),
  CONSTRAINT chk_collector_status CHECK (collector_name IS NULL OR status = 'id_collected'),
  CONSTRAINT chk_rejection_status CHECK (rejection_reason IS NULL OR status = 'rejected')
);`,
	},
	{
		Name: "create_index_registration_requests_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_registration_requests_status ON registration_requests (status);`,
	},
	{
		Name: "create_index_registration_requests_company",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_registration_requests_company ON registration_requests (company_id, submission_date DESC);`,
	},
	{
		Name: "create_index_registration_requests_employee",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_registration_requests_employee ON registration_requests (employee_id);`,
	},
	{
		Name: "create_table_registration_status_history",
		SQL: `CREATE TABLE IF NOT EXISTS registration_status_history (
  id          BIGSERIAL   PRIMARY KEY,
  request_id  TEXT        NOT NULL REFERENCES registration_requests (id),
  from_status TEXT        NOT NULL,
  to_status   TEXT        NOT NULL,
  actor_id    TEXT,
  changed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_registration_status_history_request",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_registration_status_history_request ON registration_status_history (request_id, changed_at);`,
	},
	{
		Name: "create_table_credentials",
		SQL: `CREATE TABLE IF NOT EXISTS credentials (
  employee_id TEXT        PRIMARY KEY,
  request_id  TEXT        NOT NULL REFERENCES registration_requests (id),
  id_number   TEXT        NOT NULL UNIQUE,
  issue_date  TIMESTAMPTZ NOT NULL,
  expiry_date TIMESTAMPTZ NOT NULL,
  status      TEXT        NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'active')),
  CONSTRAINT chk_credential_dates CHECK (expiry_date > issue_date)
);`,
	},
	{
		Name: "create_table_required_document_types",
		SQL: `CREATE TABLE IF NOT EXISTS required_document_types (
  name         TEXT    PRIMARY KEY,
  required     BOOLEAN NOT NULL DEFAULT true,
  instructions TEXT,
  position     INTEGER NOT NULL DEFAULT 0
);`,
	},
}

// EnsureMigrated checks for the registration_requests table and applies the
// schema when it is missing.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *slog.Logger, dbHost string) error {
	start := time.Now()
	log := logger.With("component", "database", "db_host", dbHost)

	log.Info("checking schema", "event", "db_migration_check", "status", "starting")

	var exists bool
	err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", sentinelTable).Scan(&exists)
	if err != nil {
		log.Error("migration failed",
			"event", "db_migration_failed",
			"status", "error",
			"error_message", fmt.Sprintf("failed to check sentinel table: %v", err),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("schema already exists, skipping migration",
			"event", "db_migration_skip",
			"status", "success",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	log.Info("applying schema", "event", "db_migration_start", "status", "in_progress", "steps", len(steps))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("migration failed",
				"event", "db_migration_failed",
				"status", "error",
				"migration_step", step.Name,
				"error_message", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Debug("migration step applied",
			"event", "db_migration_step",
			"status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	log.Info("schema applied",
		"event", "db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
