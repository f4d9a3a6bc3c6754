package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/repository/builder"
)

var formColumns = []string{
	"employee_id", "form_key", "status", "disabled", "data", "signature_path",
	"verified_by_name", "rejection_reason", "submitted_at", "verified_at", "updated_at",
}

type formRepository struct {
	db *sql.DB
}

// NewFormRepository creates a Postgres backed FormRepository.
func NewFormRepository(db *sql.DB) domain.FormRepository {
	return &formRepository{db: db}
}

func (r *formRepository) Get(ctx context.Context, employeeID string, key domain.FormKey) (*domain.FormRecord, error) {
	query, args := builder.NewSQLBuilder().
		Select(formColumns...).
		From("employee_forms").
		Where("employee_id = ?", employeeID).
		Where("form_key = ?", key).
		Build()

	f, err := scanForm(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrFormNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load form %s of %s: %w", key, employeeID, err)
	}
	return f, nil
}

func (r *formRepository) ListByEmployee(ctx context.Context, employeeID string) ([]domain.FormRecord, error) {
	query, args := builder.NewSQLBuilder().
		Select(formColumns...).
		From("employee_forms").
		Where("employee_id = ?", employeeID).
		OrderBy("form_key ASC").
		Build()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms of %s: %w", employeeID, err)
	}
	defer rows.Close()

	var forms []domain.FormRecord
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan form: %w", err)
		}
		forms = append(forms, *f)
	}
	return forms, rows.Err()
}

func (r *formRepository) CountByStatus(ctx context.Context, status domain.FormStatus) (int, error) {
	query, args := builder.NewSQLBuilder().
		Select("COUNT(*)").
		From("employee_forms").
		Where("status = ?", status).
		Build()

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s forms: %w", status, err)
	}
	return n, nil
}

func (r *formRepository) Upsert(ctx context.Context, f *domain.FormRecord) error {
	data, err := json.Marshal(f.Data)
	if err != nil {
		return fmt.Errorf("failed to encode form data: %w", err)
	}

	query, args := builder.NewSQLBuilder().
		Insert("employee_forms", formColumns...).
		Values(f.EmployeeID, f.FormKey, f.Status, f.Disabled, data, f.SignaturePath,
			f.VerifiedByName, f.RejectionReason, f.SubmittedAt, f.VerifiedAt, f.UpdatedAt).
		OnConflict("(employee_id, form_key) DO UPDATE SET " +
			"status = EXCLUDED.status, disabled = EXCLUDED.disabled, data = EXCLUDED.data, " +
			"signature_path = EXCLUDED.signature_path, verified_by_name = EXCLUDED.verified_by_name, " +
			"rejection_reason = EXCLUDED.rejection_reason, submitted_at = EXCLUDED.submitted_at, " +
			"verified_at = EXCLUDED.verified_at, updated_at = EXCLUDED.updated_at").
		Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert form %s of %s: %w", f.FormKey, f.EmployeeID, err)
	}
	return nil
}

func scanForm(row rowScanner) (*domain.FormRecord, error) {
	var (
		f         domain.FormRecord
		data      []byte
		submitted sql.NullTime
		verified  sql.NullTime
	)
	err := row.Scan(&f.EmployeeID, &f.FormKey, &f.Status, &f.Disabled, &data, &f.SignaturePath,
		&f.VerifiedByName, &f.RejectionReason, &submitted, &verified, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.SubmittedAt = nullTime(submitted)
	f.VerifiedAt = nullTime(verified)
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &f.Data); err != nil {
			return nil, fmt.Errorf("failed to decode form data: %w", err)
		}
	}
	return &f, nil
}
