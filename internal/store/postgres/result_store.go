package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/locapass/docverify/internal/models"
	"github.com/locapass/docverify/pkg/logger"
)

// ResultStore 校验结果的 Postgres 持久化
type ResultStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewResultStore(dsn string, log logger.Logger) (*ResultStore, error) {
	db, err := OpenDB(dsn)
	if err != nil {
		return nil, err
	}

	store := &ResultStore{db: db, logger: log}
	if err := store.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema 建表，幂等
func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS validation_results (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	document_type TEXT NOT NULL,
	is_valid BOOLEAN NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	errors JSONB NOT NULL DEFAULT '[]'::jsonb,
	warnings JSONB NOT NULL DEFAULT '[]'::jsonb,
	extracted_data JSONB NOT NULL DEFAULT '{}'::jsonb,
	processing_time BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_validation_results_tenant ON validation_results(tenant_id);
CREATE INDEX IF NOT EXISTS idx_validation_results_created_at ON validation_results(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Save 插入一条校验结果；结果不可变，只插入不更新
func (s *ResultStore) Save(ctx context.Context, result *models.DocumentValidationResult) error {
	errorsJSON, err := json.Marshal(result.Errors)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}
	warningsJSON, err := json.Marshal(result.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	dataJSON, err := json.Marshal(result.ExtractedData)
	if err != nil {
		return fmt.Errorf("marshal extracted data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO validation_results (
	id, tenant_id, document_type, is_valid, confidence, errors, warnings, extracted_data, processing_time, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		result.DocumentID, result.TenantID, string(result.DocumentType), result.IsValid, result.Confidence,
		errorsJSON, warningsJSON, dataJSON, result.ProcessingTimeMs, result.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert validation result: %w", err)
	}
	return nil
}

// ValidResults 返回租户历史上 is_valid 的结果
func (s *ResultStore) ValidResults(ctx context.Context, tenantID string) ([]models.DocumentValidationResult, error) {
	return s.query(ctx, `
SELECT id, tenant_id, document_type, is_valid, confidence, errors, warnings, extracted_data, processing_time, created_at
FROM validation_results
WHERE tenant_id = $1 AND is_valid = TRUE
ORDER BY created_at DESC
`, tenantID)
}

// History 返回租户的完整校验历史，新的在前
func (s *ResultStore) History(ctx context.Context, tenantID string) ([]models.DocumentValidationResult, error) {
	return s.query(ctx, `
SELECT id, tenant_id, document_type, is_valid, confidence, errors, warnings, extracted_data, processing_time, created_at
FROM validation_results
WHERE tenant_id = $1
ORDER BY created_at DESC
`, tenantID)
}

func (s *ResultStore) query(ctx context.Context, query, tenantID string) ([]models.DocumentValidationResult, error) {
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query validation results: %w", err)
	}
	defer rows.Close()

	var results []models.DocumentValidationResult
	for rows.Next() {
		var (
			result      models.DocumentValidationResult
			docType     string
			errorsRaw   []byte
			warningsRaw []byte
			dataRaw     []byte
		)

		err := rows.Scan(
			&result.DocumentID, &result.TenantID, &docType, &result.IsValid, &result.Confidence,
			&errorsRaw, &warningsRaw, &dataRaw, &result.ProcessingTimeMs, &result.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan validation result: %w", err)
		}

		result.DocumentType = models.DocumentType(docType)
		if err := json.Unmarshal(errorsRaw, &result.Errors); err != nil {
			return nil, fmt.Errorf("unmarshal errors: %w", err)
		}
		if err := json.Unmarshal(warningsRaw, &result.Warnings); err != nil {
			return nil, fmt.Errorf("unmarshal warnings: %w", err)
		}
		if err := json.Unmarshal(dataRaw, &result.ExtractedData); err != nil {
			return nil, fmt.Errorf("unmarshal extracted data: %w", err)
		}

		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validation results: %w", err)
	}
	return results, nil
}

// Close 关闭数据库连接
func (s *ResultStore) Close() error {
	return s.db.Close()
}
