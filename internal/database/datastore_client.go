package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/datastore"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
)

const auditKind = "AuditEvent"

// DatastoreAuditLog stores HR audit events as Datastore entities, one kind for all employees.
type DatastoreAuditLog struct {
	client *datastore.Client
}

// NewDatastoreAuditLog connects to projectID. DATASTORE_EMULATOR_HOST is honoured by the client.
func NewDatastoreAuditLog(ctx context.Context, projectID string) (*DatastoreAuditLog, error) {
	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}
	return WrapDatastoreClient(client), nil
}

// WrapDatastoreClient wraps an existing client.
func WrapDatastoreClient(client *datastore.Client) *DatastoreAuditLog {
	if client == nil {
		return nil
	}
	return &DatastoreAuditLog{client: client}
}

// Record saves ev under a name key derived from its id.
func (a *DatastoreAuditLog) Record(ctx context.Context, ev domain.AuditEvent) error {
	if a == nil || a.client == nil {
		return fmt.Errorf("datastore client is nil")
	}
	key := datastore.NameKey(auditKind, ev.ID, nil)
	if _, err := a.client.Put(ctx, key, &ev); err != nil {
		return fmt.Errorf("failed to save audit event %s: %w", ev.ID, err)
	}
	return nil
}

// ListByEmployee returns the newest events of one employee.
func (a *DatastoreAuditLog) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]domain.AuditEvent, error) {
	if a == nil || a.client == nil {
		return nil, fmt.Errorf("datastore client is nil")
	}
	q := datastore.NewQuery(auditKind).
		FilterField("EmployeeID", "=", employeeID).
		Order("-CreatedAt")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var events []domain.AuditEvent
	keys, err := a.client.GetAll(ctx, q, &events)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events of %s: %w", employeeID, err)
	}
	for i, k := range keys {
		events[i].ID = k.Name
	}
	return events, nil
}

// Close releases the client.
func (a *DatastoreAuditLog) Close() error {
	if a == nil || a.client == nil {
		return nil
	}
	return a.client.Close()
}
