package domain

import "context"

// EmployeeFilter defines criteria for listing employees
type EmployeeFilter struct {
	Roles          []Role
	OnboardingHRID string
	Limit          int
	Offset         int
}

// EmployeeRepository defines the interface for employee data access.
// List results carry OnboardingHRName resolved from the assigned HR account.
type EmployeeRepository interface {
	Create(ctx context.Context, e *Employee) error
	GetByID(ctx context.Context, id string) (*Employee, error)
	GetByEmail(ctx context.Context, email string) (*Employee, error)
	Update(ctx context.Context, e *Employee) error
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, error)
}

// FormRepository stores per-employee form sub-records.
// Get returns ErrFormNotFound for a form the employee never touched.
type FormRepository interface {
	Get(ctx context.Context, employeeID string, key FormKey) (*FormRecord, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]FormRecord, error)
	CountByStatus(ctx context.Context, status FormStatus) (int, error)
	Upsert(ctx context.Context, f *FormRecord) error
}

// DocumentRepository stores uploaded checklist documents.
type DocumentRepository interface {
	Create(ctx context.Context, d *DocumentRecord) error
	GetByID(ctx context.Context, id string) (*DocumentRecord, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]DocumentRecord, error)
	Update(ctx context.Context, d *DocumentRecord) error
	Delete(ctx context.Context, id string) error
}

// AuditLog records HR actions.
type AuditLog interface {
	Record(ctx context.Context, ev AuditEvent) error
	ListByEmployee(ctx context.Context, employeeID string, limit int) ([]AuditEvent, error)
}

// Directory is a search index over employees. Search returns matching employee ids
// in relevance order.
type Directory interface {
	Index(ctx context.Context, entry DirectoryEntry) error
	BulkIndex(ctx context.Context, entries []DirectoryEntry) error
	Search(ctx context.Context, query string, limit int) ([]string, error)
	IDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, ids []string) error
}

// FileStore persists uploaded files and returns an opaque storage path.
type FileStore interface {
	Save(ctx context.Context, dir, name string, data []byte) (string, error)
	Remove(ctx context.Context, path string) error
	Read(ctx context.Context, path string) ([]byte, error)
}

// Publisher sends events to downstream services.
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}
