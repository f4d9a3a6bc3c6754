package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/repository/builder"
)

var documentColumns = []string{
	"id", "employee_id", "doc_type", "file_name", "storage_path", "content_type", "size",
	"status", "remarks", "verified_by_name", "uploaded_at", "verified_at",
}

type documentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a Postgres backed DocumentRepository.
func NewDocumentRepository(db *sql.DB) domain.DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, d *domain.DocumentRecord) error {
	query, args := builder.NewSQLBuilder().
		Insert("documents", documentColumns...).
		Values(d.ID, d.EmployeeID, d.DocType, d.FileName, d.StoragePath, d.ContentType, d.Size,
			d.Status, d.Remarks, d.VerifiedByName, d.UploadedAt, d.VerifiedAt).
		Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*domain.DocumentRecord, error) {
	query, args := builder.NewSQLBuilder().
		Select(documentColumns...).
		From("documents").
		Where("id = ?", id).
		Build()

	d, err := scanDocument(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	return d, nil
}

func (r *documentRepository) ListByEmployee(ctx context.Context, employeeID string) ([]domain.DocumentRecord, error) {
	query, args := builder.NewSQLBuilder().
		Select(documentColumns...).
		From("documents").
		Where("employee_id = ?", employeeID).
		OrderBy("uploaded_at ASC").
		Build()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents of %s: %w", employeeID, err)
	}
	defer rows.Close()

	var docs []domain.DocumentRecord
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func (r *documentRepository) Update(ctx context.Context, d *domain.DocumentRecord) error {
	query, args := builder.NewSQLBuilder().Update("documents").
		Set("status", d.Status).
		Set("remarks", d.Remarks).
		Set("verified_by_name", d.VerifiedByName).
		Set("verified_at", d.VerifiedAt).
		Where("id = ?", d.ID).
		Build()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update document %s: %w", d.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	query, args := builder.NewSQLBuilder().Delete("documents").Where("id = ?", id).Build()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func scanDocument(row rowScanner) (*domain.DocumentRecord, error) {
	var (
		d        domain.DocumentRecord
		verified sql.NullTime
	)
	err := row.Scan(&d.ID, &d.EmployeeID, &d.DocType, &d.FileName, &d.StoragePath, &d.ContentType, &d.Size,
		&d.Status, &d.Remarks, &d.VerifiedByName, &d.UploadedAt, &verified)
	if err != nil {
		return nil, err
	}
	d.VerifiedAt = nullTime(verified)
	return &d, nil
}
