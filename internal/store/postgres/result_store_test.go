package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/locapass/docverify/internal/models"
	"github.com/locapass/docverify/pkg/logger"
)

func newStoreWithMock(t *testing.T) (*ResultStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	store := &ResultStore{db: db, logger: logger.NewTestLogger()}
	return store, mock, func() { _ = db.Close() }
}

func TestSaveInsertsSerializedResult(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	result := &models.DocumentValidationResult{
		DocumentID:   "doc-1",
		TenantID:     "tenant-1",
		DocumentType: models.DocumentTypePayslip,
		IsValid:      true,
		Confidence:   0.92,
		Errors:       []models.ValidationError{},
		Warnings:     []models.ValidationWarning{},
		ExtractedData: models.FieldMap{
			"net_salary": 2100.0,
		},
		ProcessingTimeMs: 340,
		Timestamp:        time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO validation_results").
		WithArgs(
			"doc-1", "tenant-1", "payslip", true, 0.92,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(340), result.Timestamp,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Save(context.Background(), result); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestValidResultsFiltersAndDeserializes(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	created := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "document_type", "is_valid", "confidence",
		"errors", "warnings", "extracted_data", "processing_time", "created_at",
	}).AddRow(
		"doc-2", "tenant-1", "identity", true, 0.85,
		[]byte(`[]`),
		[]byte(`[{"code":"EXPIRING_IDENTITY","message":"expires soon"}]`),
		[]byte(`{"full_name":"Marie Dupont"}`),
		int64(210), created,
	)

	mock.ExpectQuery("SELECT id, tenant_id, document_type").
		WithArgs("tenant-1").
		WillReturnRows(rows)

	results, err := store.ValidResults(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("ValidResults() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got := results[0]
	if got.DocumentType != models.DocumentTypeIdentity {
		t.Fatalf("expected identity, got %s", got.DocumentType)
	}
	if len(got.Warnings) != 1 || got.Warnings[0].Code != "EXPIRING_IDENTITY" {
		t.Fatalf("warnings not deserialized: %+v", got.Warnings)
	}
	if got.ExtractedData["full_name"] != "Marie Dupont" {
		t.Fatalf("extracted data not deserialized: %+v", got.ExtractedData)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHistoryPropagatesQueryError(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, tenant_id, document_type").
		WithArgs("tenant-9").
		WillReturnError(errors.New("connection reset"))

	_, err := store.History(context.Background(), "tenant-9")
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
