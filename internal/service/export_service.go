package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/locvowork/hr_onboarding_portal/internal/onboarding"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
	"github.com/locvowork/hr_onboarding_portal/pkg/simpleexcel"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

const rosterSheet = "Roster"

// rosterReportYAML lays out the roster export. Column field names follow RosterEntry.
const rosterReportYAML = `
sheets:
  - name: Roster
    sections:
      - id: roster
        title: Onboarding Roster
        show_header: true
        has_filter: true
        freeze_header: true
        locked: true
        columns:
          - field_name: FirstName
            header: First Name
            width: 18
          - field_name: LastName
            header: Last Name
            width: 18
          - field_name: Email
            header: Email
            width: 32
          - field_name: Department
            header: Department
          - field_name: JobTitle
            header: Job Title
          - field_name: Location
            header: Location
            width: 16
          - field_name: DateOfJoining
            header: Date of Joining
            formatter: date
            width: 16
          - field_name: OnboardingHRName
            header: Assigned HR
            formatter: hr
          - field_name: Status
            header: Status
            width: 22
      - id: meta
        title: Export
        type: hidden
        auto_columns: true
`

// ExportFile is a rendered export ready to download.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders the filtered roster as Excel or CSV.
type ExportService struct {
	employees *EmployeeService
	now       func() time.Time
}

// NewExportService creates an ExportService.
func NewExportService(employees *EmployeeService) *ExportService {
	return &ExportService{employees: employees, now: time.Now}
}

// ExportRoster applies the roster filters and sort without pagination.
func (s *ExportService) ExportRoster(ctx context.Context, actor session.Principal, f onboarding.RosterFilter, key onboarding.SortKey, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatXLSX
	}
	if format != FormatXLSX && format != FormatCSV {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	rows, err := s.employees.RosterRows(ctx, actor, f, key)
	if err != nil {
		return nil, err
	}

	exporter, err := simpleexcel.NewDataExporterFromYamlConfig(rosterReportYAML)
	if err != nil {
		return nil, err
	}
	if exporter.GetSheet(rosterSheet) == nil {
		return nil, fmt.Errorf("roster template has no %q sheet", rosterSheet)
	}
	exporter.
		RegisterFormatter("date", formatDate).
		RegisterFormatter("hr", formatHR).
		BindSectionData("roster", rows).
		BindSectionData("meta", []map[string]interface{}{{
			"exportedBy": actor.Email,
			"exportedAt": s.now().UTC().Format(time.RFC3339),
			"rows":       len(rows),
		}})

	stamp := s.now().UTC().Format("20060102_150405")
	if format == FormatCSV {
		var buf bytes.Buffer
		if err := exporter.ToCSV(&buf); err != nil {
			return nil, fmt.Errorf("failed to render csv: %w", err)
		}
		return &ExportFile{
			FileName:    "roster_" + stamp + ".csv",
			ContentType: "text/csv",
			Data:        buf.Bytes(),
		}, nil
	}

	b, err := exporter.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render xlsx: %w", err)
	}
	return &ExportFile{
		FileName:    "roster_" + stamp + ".xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        b,
	}, nil
}

func formatDate(v interface{}) interface{} {
	if t, ok := v.(time.Time); ok {
		return t.Format(DateLayout)
	}
	return v
}

func formatHR(v interface{}) interface{} {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return onboarding.NotAssigned
}
