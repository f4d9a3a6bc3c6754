package service

import (
	"context"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/logger"
	"github.com/locvowork/hr_onboarding_portal/internal/onboarding"
	"github.com/locvowork/hr_onboarding_portal/internal/policy"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
)

// MaxDocumentSize is the largest accepted upload.
const MaxDocumentSize = 5 * 1024 * 1024

// DocumentService manages the required-documents checklist.
type DocumentService struct {
	employees domain.EmployeeRepository
	documents domain.DocumentRepository
	files     domain.FileStore
	audit     auditor
	now       func() time.Time
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(employees domain.EmployeeRepository, documents domain.DocumentRepository, files domain.FileStore, audit domain.AuditLog) *DocumentService {
	return &DocumentService{
		employees: employees,
		documents: documents,
		files:     files,
		audit:     auditor{log: audit, now: time.Now},
		now:       time.Now,
	}
}

// Required returns the fixed checklist.
func (s *DocumentService) Required() []domain.DocumentSpec {
	return domain.RequiredDocuments()
}

// List returns the uploads of one employee.
func (s *DocumentService) List(ctx context.Context, actor session.Principal, employeeID string) ([]domain.DocumentRecord, error) {
	e, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanView(actor.Actor(), e); err != nil {
		return nil, err
	}
	return s.documents.ListByEmployee(ctx, e.ID)
}

// Upload stores a checklist document for the caller. Documents open with the pre-joining
// section; a new upload replaces an earlier unverified one of the same type.
func (s *DocumentService) Upload(ctx context.Context, p session.Principal, docType string, file Upload) (*domain.DocumentRecord, error) {
	spec, ok := domain.LookupDocument(domain.DocumentType(docType))
	if !ok {
		return nil, domain.ErrUnknownDocumentType
	}
	if len(file.Data) > MaxDocumentSize {
		return nil, domain.ErrDocumentTooLarge
	}
	e, err := s.employees.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if !onboarding.SectionOpen(e.OnboardingStage, onboarding.SectionPreJoining) {
		return nil, domain.ErrFormNotReachable
	}

	existing, err := s.documents.ListByEmployee(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	var replaced []domain.DocumentRecord
	for _, d := range existing {
		if d.DocType != spec.Type {
			continue
		}
		if d.Status == domain.FormVerified {
			return nil, domain.ErrDocumentLocked
		}
		replaced = append(replaced, d)
	}

	stored, err := s.files.Save(ctx, path.Join("documents", e.ID), file.FileName, file.Data)
	if err != nil {
		return nil, err
	}
	d := &domain.DocumentRecord{
		ID:          uuid.NewString(),
		EmployeeID:  e.ID,
		DocType:     spec.Type,
		FileName:    sanitize(file.FileName),
		StoragePath: stored,
		ContentType: file.ContentType,
		Size:        int64(len(file.Data)),
		Status:      domain.FormSubmitted,
		UploadedAt:  s.now().UTC(),
	}
	if err := s.documents.Create(ctx, d); err != nil {
		_ = s.files.Remove(ctx, stored)
		return nil, err
	}
	for i := range replaced {
		s.discard(ctx, &replaced[i])
	}
	return d, nil
}

func (s *DocumentService) discard(ctx context.Context, d *domain.DocumentRecord) {
	if err := s.documents.Delete(ctx, d.ID); err != nil {
		logger.WarnLog(ctx, "failed to delete replaced document %s: %v", d.ID, err)
		return
	}
	if err := s.files.Remove(ctx, d.StoragePath); err != nil {
		logger.WarnLog(ctx, "failed to remove file %s: %v", d.StoragePath, err)
	}
}

// Download returns an upload and its content to the owner or a reviewing HR.
func (s *DocumentService) Download(ctx context.Context, actor session.Principal, id string) (*domain.DocumentRecord, []byte, error) {
	d, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	owner, err := s.employees.GetByID(ctx, d.EmployeeID)
	if err != nil {
		return nil, nil, err
	}
	if err := policy.CanView(actor.Actor(), owner); err != nil {
		return nil, nil, err
	}
	data, err := s.files.Read(ctx, d.StoragePath)
	if err != nil {
		return nil, nil, err
	}
	return d, data, nil
}

// Delete removes an unverified upload. The owner and HR may delete.
func (s *DocumentService) Delete(ctx context.Context, actor session.Principal, id string) error {
	d, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}
	owner, err := s.employees.GetByID(ctx, d.EmployeeID)
	if err != nil {
		return err
	}
	if err := policy.CanView(actor.Actor(), owner); err != nil {
		return err
	}
	if d.Status == domain.FormVerified {
		return domain.ErrDocumentLocked
	}
	if err := s.documents.Delete(ctx, d.ID); err != nil {
		return err
	}
	if err := s.files.Remove(ctx, d.StoragePath); err != nil {
		logger.WarnLog(ctx, "failed to remove file %s: %v", d.StoragePath, err)
	}
	return nil
}

// Verify records an HR decision on an upload.
func (s *DocumentService) Verify(ctx context.Context, actor session.Principal, id, status, remarks string) (*domain.DocumentRecord, error) {
	d, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.employees.GetByID(ctx, d.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanManage(actor.Actor(), owner); err != nil {
		return nil, err
	}
	decision, err := domain.ParseFormStatus(status)
	if err != nil {
		return nil, err
	}
	action, err := onboarding.ReviewAction(decision)
	if err != nil {
		return nil, err
	}
	remarks = sanitize(remarks)
	next, err := onboarding.NextFormStatus(d.Status, action, remarks)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	d.Status = next
	d.Remarks = remarks
	d.VerifiedByName = actor.Name
	if next == domain.FormVerified {
		d.VerifiedAt = &now
	}
	if err := s.documents.Update(ctx, d); err != nil {
		return nil, err
	}

	auditAction := domain.AuditDocumentVerified
	if next == domain.FormRejected {
		auditAction = domain.AuditDocumentRejected
	}
	s.audit.record(ctx, actor, owner.ID, auditAction, string(d.DocType)+": "+remarks)
	return d, nil
}
