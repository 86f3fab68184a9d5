package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_patients",
		SQL: `CREATE TABLE IF NOT EXISTS patients (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  full_name  TEXT        NOT NULL,
  created_by TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_patient_files",
		SQL: `CREATE TABLE IF NOT EXISTS patient_files (
  id                  UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  patient_id          UUID        NOT NULL REFERENCES patients (id) ON DELETE CASCADE,
  category            TEXT        NOT NULL CHECK (category IN ('admission', 'pathology', 'imaging', 'diagnostics', 'lab_results', 'other')),
  requires_pagination BOOLEAN     NOT NULL DEFAULT false,
  page_count          INTEGER     CHECK (page_count IS NULL OR page_count > 0),
  filename            TEXT        NOT NULL,
  storage_path        TEXT        NOT NULL UNIQUE,
  size                BIGINT      NOT NULL CHECK (size >= 0),
  content_type        TEXT        NOT NULL,
  created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_patient_files_patient_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_patient_files_patient_id ON patient_files (patient_id);`,
	},
	{
		Name: "create_table_investigation_requests",
		SQL: `CREATE TABLE IF NOT EXISTS investigation_requests (
  id               UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  patient_id       UUID        NOT NULL REFERENCES patients (id) ON DELETE CASCADE,
  group_id         TEXT        NOT NULL,
  kind             TEXT        NOT NULL CHECK (kind IN ('blood_test', 'imaging')),
  test_type        TEXT        NOT NULL,
  reason           TEXT        NOT NULL,
  actor_account_id TEXT        NOT NULL,
  sign_off_name    TEXT        NOT NULL,
  sign_off_role    TEXT        NOT NULL,
  status           TEXT        NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed')),
  created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  approved_at      TIMESTAMPTZ,
  approved_by      TEXT
);`,
	},
	{
		Name: "create_index_investigation_requests_patient_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_investigation_requests_patient_id ON investigation_requests (patient_id);`,
	},
	{
		Name: "create_index_investigation_requests_group_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_investigation_requests_group_status ON investigation_requests (group_id, status);`,
	},
	{
		Name: "create_table_file_grants",
		SQL: `CREATE TABLE IF NOT EXISTS file_grants (
  id         UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  request_id UUID NOT NULL REFERENCES investigation_requests (id) ON DELETE CASCADE,
  file_id    UUID NOT NULL,
  page_range TEXT
);`,
	},
	{
		Name: "create_index_file_grants_request_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_file_grants_request_id ON file_grants (request_id);`,
	},
	{
		Name: "create_index_file_grants_file_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_file_grants_file_id ON file_grants (file_id);`,
	},
	{
		Name: "create_table_visibility_overrides",
		SQL: `CREATE TABLE IF NOT EXISTS visibility_overrides (
  file_id    UUID        NOT NULL,
  group_id   TEXT        NOT NULL,
  visible    BOOLEAN     NOT NULL,
  changed_by TEXT        NOT NULL,
  changed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (file_id, group_id)
);`,
	},
	{
		Name: "create_table_visibility_audit",
		SQL: `CREATE TABLE IF NOT EXISTS visibility_audit (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  file_id     UUID        NOT NULL,
  group_id    TEXT        NOT NULL,
  old_visible BOOLEAN,
  new_visible BOOLEAN     NOT NULL,
  changed_by  TEXT        NOT NULL,
  changed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_visibility_audit_file_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_visibility_audit_file_id ON visibility_audit (file_id);`,
	},
}

// EnsureMigrated checks if the 'patient_files' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.patient_files') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
