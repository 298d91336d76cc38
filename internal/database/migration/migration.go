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
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  filename          TEXT        NOT NULL,
  storage_path      TEXT        NOT NULL UNIQUE,
  local_path        TEXT,
  size              BIGINT      NOT NULL CHECK (size >= 0),
  content_type      TEXT        NOT NULL,
  extracted_text    TEXT,
  extraction_engine TEXT,
  summary           TEXT,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		// Upgrade path for installs that predate the extraction pipeline.
		Name: "alter_table_documents_extraction_columns",
		SQL: `ALTER TABLE documents
  ADD COLUMN IF NOT EXISTS local_path        TEXT,
  ADD COLUMN IF NOT EXISTS extracted_text    TEXT,
  ADD COLUMN IF NOT EXISTS extraction_engine TEXT,
  ADD COLUMN IF NOT EXISTS summary           TEXT;`,
	},
	{
		Name: "create_index_documents_filename",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_filename ON documents (filename);`,
	},
	{
		Name: "create_index_documents_content_type",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_content_type ON documents (content_type);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);`,
	},
	{
		Name: "create_table_signatures",
		SQL: `CREATE TABLE IF NOT EXISTS signatures (
  id                  UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  contract_id         UUID        NOT NULL,
  signer_email        TEXT        NOT NULL,
  signer_name         TEXT        NOT NULL,
  status              TEXT        NOT NULL DEFAULT 'pending',
  cert_issuer         TEXT        NOT NULL DEFAULT '',
  cert_subject        TEXT        NOT NULL DEFAULT '',
  cert_serial_number  TEXT        NOT NULL DEFAULT '',
  cert_valid_from     TIMESTAMPTZ,
  cert_valid_to       TIMESTAMPTZ,
  cert_algorithm      TEXT        NOT NULL DEFAULT '',
  cert_key_usage      JSONB       NOT NULL DEFAULT '[]',
  signature_value     BYTEA,
  signed_at           TIMESTAMPTZ,
  ocsp_response       BYTEA,
  timestamp_token     BYTEA,
  verification_result JSONB,
  created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_signatures_contract_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_signatures_contract_id ON signatures (contract_id);`,
	},
	{
		Name: "create_index_signatures_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_signatures_status ON signatures (status);`,
	},
	{
		Name: "create_table_settings",
		SQL: `CREATE TABLE IF NOT EXISTS settings (
  key        TEXT        PRIMARY KEY,
  value      TEXT        NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
}

// EnsureMigrated checks if the 'settings' table (the newest migration target)
// exists and runs the idempotent migration steps if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.settings') IS NOT NULL"
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
