package domain

import (
	"fmt"
	"strings"
	"time"
)

// ==================== ROLES & LIFECYCLE ENUMS ====================

// Role is the account role of a portal user.
type Role string

const (
	RoleEmployee     Role = "EMPLOYEE"
	RoleHRAdmin      Role = "HR_ADMIN"
	RoleHRSuperAdmin Role = "HR_SUPER_ADMIN"
	RoleAdmin        Role = "ADMIN"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(raw))); r {
	case RoleEmployee, RoleHRAdmin, RoleHRSuperAdmin, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
}

// IsHR reports whether the role belongs to the HR side of the portal.
func (r Role) IsHR() bool {
	return r == RoleHRAdmin || r == RoleHRSuperAdmin || r == RoleAdmin
}

// Stage is the coarse onboarding position of an employee.
type Stage string

const (
	StageBasicInfo          Stage = "BASIC_INFO"
	StagePreJoining         Stage = "PRE_JOINING"
	StagePreJoiningVerified Stage = "PRE_JOINING_VERIFIED"
	StagePostJoining        Stage = "POST_JOINING"
	StageOnboarded          Stage = "ONBOARDED"
	StageNotJoined          Stage = "Not_joined"

	// stageActiveAlias is accepted on input and stored as ONBOARDED.
	stageActiveAlias = "ACTIVE"
)

// ParseStage validates a raw stage string. "ACTIVE" is accepted as ONBOARDED.
func ParseStage(raw string) (Stage, error) {
	s := strings.TrimSpace(raw)
	if strings.EqualFold(s, stageActiveAlias) {
		return StageOnboarded, nil
	}
	if strings.EqualFold(s, string(StageNotJoined)) {
		return StageNotJoined, nil
	}
	switch st := Stage(strings.ToUpper(s)); st {
	case StageBasicInfo, StagePreJoining, StagePreJoiningVerified, StagePostJoining, StageOnboarded:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStage, raw)
}

// Canonical maps legacy spellings such as "ACTIVE" onto the declared stage and returns
// unrecognised values unchanged.
func (s Stage) Canonical() Stage {
	if st, err := ParseStage(string(s)); err == nil {
		return st
	}
	return s
}

// Known reports whether s is exactly one of the declared stages.
func (s Stage) Known() bool {
	switch s {
	case StageBasicInfo, StagePreJoining, StagePreJoiningVerified, StagePostJoining, StageOnboarded, StageNotJoined:
		return true
	}
	return false
}

// AccountStatus is independent of the stage: a deactivated employee keeps its stage history.
type AccountStatus string

const (
	AccountActive   AccountStatus = "ACTIVE"
	AccountInvited  AccountStatus = "INVITED"
	AccountInactive AccountStatus = "Inactive"
)

// ParseAccountStatus validates a raw account status.
func ParseAccountStatus(raw string) (AccountStatus, error) {
	s := strings.TrimSpace(raw)
	switch {
	case strings.EqualFold(s, string(AccountActive)):
		return AccountActive, nil
	case strings.EqualFold(s, string(AccountInvited)):
		return AccountInvited, nil
	case strings.EqualFold(s, string(AccountInactive)):
		return AccountInactive, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAccountStatus, raw)
}

// FormStatus is the per-form sub-state.
type FormStatus string

const (
	FormPending   FormStatus = "PENDING"
	FormSubmitted FormStatus = "SUBMITTED"
	FormVerified  FormStatus = "VERIFIED"
	FormRejected  FormStatus = "REJECTED"
)

// ParseFormStatus validates a raw form status.
func ParseFormStatus(raw string) (FormStatus, error) {
	switch s := FormStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case FormPending, FormSubmitted, FormVerified, FormRejected:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormStatus, raw)
}

// FormKey identifies one of the fixed HR forms.
type FormKey string

const (
	FormApplication  FormKey = "application"
	FormEmployeeInfo FormKey = "employee-info"
	FormDeclaration  FormKey = "declaration"
	FormMediclaim    FormKey = "mediclaim"
	FormEPF          FormKey = "epf"
	FormNDA          FormKey = "nda"
	FormTDS          FormKey = "tds"
	FormGratuity     FormKey = "gratuity"
)

var allFormKeys = []FormKey{
	FormApplication, FormEmployeeInfo, FormDeclaration,
	FormMediclaim, FormEPF, FormNDA, FormTDS, FormGratuity,
}

// AllFormKeys returns every form key in display order.
func AllFormKeys() []FormKey {
	out := make([]FormKey, len(allFormKeys))
	copy(out, allFormKeys)
	return out
}

// ParseFormKey validates a form name from a URL or payload.
func ParseFormKey(raw string) (FormKey, error) {
	k := FormKey(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range allFormKeys {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownForm, raw)
}

// ==================== RECORDS ====================

// BasicInfo is the profile capture sub-record reviewed by HR before pre-joining opens.
type BasicInfo struct {
	Status          FormStatus             `json:"status"`
	Data            map[string]interface{} `json:"data,omitempty"`
	RejectionReason string                 `json:"rejectionReason,omitempty"`
	VerifiedByName  string                 `json:"verifiedByName,omitempty"`
	SubmittedAt     *time.Time             `json:"submittedAt,omitempty"`
	VerifiedAt      *time.Time             `json:"verifiedAt,omitempty"`
}

// Employee is a portal account. HR staff are employees with an HR role.
type Employee struct {
	ID               string        `json:"id"`
	Email            string        `json:"email"`
	PasswordHash     string        `json:"-"`
	Role             Role          `json:"role"`
	FirstName        string        `json:"firstName"`
	LastName         string        `json:"lastName"`
	PersonalEmail    string        `json:"personalEmail,omitempty"`
	Phone            string        `json:"phone,omitempty"`
	Department       string        `json:"department,omitempty"`
	JobTitle         string        `json:"jobTitle,omitempty"`
	Location         string        `json:"location,omitempty"`
	DateOfJoining    *time.Time    `json:"dateOfJoining,omitempty"`
	OnboardingHRID   *string       `json:"onboardingHrId,omitempty"`
	OnboardingHRName string        `json:"assignedHRName,omitempty"`
	OnboardingStage  Stage         `json:"onboardingStage"`
	PreviousStage    Stage         `json:"previousStage,omitempty"`
	AccountStatus    AccountStatus `json:"accountStatus"`
	FirstLoginAt     *time.Time    `json:"firstLoginAt,omitempty"`
	LastLoginAt      *time.Time    `json:"lastLoginAt,omitempty"`
	BasicInfo        BasicInfo     `json:"basicInfo"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// FullName joins first and last name.
func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// HasLoggedIn reports whether either login timestamp is set.
func (e *Employee) HasLoggedIn() bool {
	return e.FirstLoginAt != nil || e.LastLoginAt != nil
}

// FormRecord is one employee's copy of one HR form.
type FormRecord struct {
	EmployeeID      string                 `json:"employeeId"`
	FormKey         FormKey                `json:"formKey"`
	Status          FormStatus             `json:"status"`
	Disabled        bool                   `json:"disabled"`
	Data            map[string]interface{} `json:"data,omitempty"`
	SignaturePath   string                 `json:"signaturePath,omitempty"`
	VerifiedByName  string                 `json:"verifiedByName,omitempty"`
	RejectionReason string                 `json:"rejectionReason,omitempty"`
	SubmittedAt     *time.Time             `json:"submittedAt,omitempty"`
	VerifiedAt      *time.Time             `json:"verifiedAt,omitempty"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// NewPendingForm is the implicit record for a form the employee never touched.
func NewPendingForm(employeeID string, key FormKey) *FormRecord {
	return &FormRecord{EmployeeID: employeeID, FormKey: key, Status: FormPending}
}

// DocumentType identifies an entry of the required-documents checklist.
type DocumentType string

// DocumentSpec describes one checklist entry.
type DocumentSpec struct {
	Type      DocumentType `json:"type"`
	Label     string       `json:"label"`
	Mandatory bool         `json:"mandatory"`
}

var requiredDocuments = []DocumentSpec{
	{Type: "aadhaar_card", Label: "Aadhaar Card", Mandatory: true},
	{Type: "pan_card", Label: "PAN Card", Mandatory: true},
	{Type: "passport_photo", Label: "Passport Size Photograph", Mandatory: true},
	{Type: "educational_certificates", Label: "Educational Certificates", Mandatory: true},
	{Type: "address_proof", Label: "Address Proof", Mandatory: true},
	{Type: "bank_details", Label: "Bank Passbook / Cancelled Cheque", Mandatory: true},
	{Type: "relieving_letter", Label: "Relieving Letter from Previous Employer", Mandatory: false},
	{Type: "payslips", Label: "Last 3 Months Payslips", Mandatory: false},
	{Type: "experience_certificate", Label: "Experience Certificate", Mandatory: false},
	{Type: "passport", Label: "Passport", Mandatory: false},
	{Type: "previous_form16", Label: "Form 16 from Previous Employer", Mandatory: false},
}

// RequiredDocuments returns the fixed checklist (6 mandatory, 5 optional).
func RequiredDocuments() []DocumentSpec {
	out := make([]DocumentSpec, len(requiredDocuments))
	copy(out, requiredDocuments)
	return out
}

// LookupDocument finds a checklist entry by type.
func LookupDocument(t DocumentType) (DocumentSpec, bool) {
	for _, spec := range requiredDocuments {
		if spec.Type == t {
			return spec, true
		}
	}
	return DocumentSpec{}, false
}

// DocumentRecord is an uploaded file for one checklist entry.
type DocumentRecord struct {
	ID             string       `json:"id"`
	EmployeeID     string       `json:"employeeId"`
	DocType        DocumentType `json:"docType"`
	FileName       string       `json:"fileName"`
	StoragePath    string       `json:"-"`
	ContentType    string       `json:"contentType,omitempty"`
	Size           int64        `json:"size"`
	Status         FormStatus   `json:"status"`
	Remarks        string       `json:"remarks,omitempty"`
	VerifiedByName string       `json:"verifiedByName,omitempty"`
	UploadedAt     time.Time    `json:"uploadedAt"`
	VerifiedAt     *time.Time   `json:"verifiedAt,omitempty"`
}

// ==================== AUDIT & DIRECTORY ====================

// Audit actions recorded for HR operations.
const (
	AuditAccountCreated     = "account_created"
	AuditProfileUpdated     = "profile_updated"
	AuditBasicInfoVerified  = "basic_info_verified"
	AuditBasicInfoRejected  = "basic_info_rejected"
	AuditStageAdvanced      = "stage_advanced"
	AuditFormAccessToggled  = "form_access_toggled"
	AuditFormVerified       = "form_verified"
	AuditFormRejected       = "form_rejected"
	AuditDocumentVerified   = "document_verified"
	AuditDocumentRejected   = "document_rejected"
	AuditEmployeeDeactivate = "employee_deactivated"
	AuditEmployeeActivate   = "employee_activated"
	AuditWelcomeEmailSent   = "welcome_email_sent"
)

// AuditEvent is one HR action against an employee record.
type AuditEvent struct {
	ID         string    `json:"id" datastore:"-"`
	EmployeeID string    `json:"employeeId" datastore:"EmployeeID"`
	ActorID    string    `json:"actorId" datastore:"ActorID"`
	ActorName  string    `json:"actorName" datastore:"ActorName"`
	Action     string    `json:"action" datastore:"Action"`
	Detail     string    `json:"detail,omitempty" datastore:"Detail,noindex"`
	CreatedAt  time.Time `json:"createdAt" datastore:"CreatedAt"`
}

// DirectoryEntry is the searchable projection of an employee.
type DirectoryEntry struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	JobTitle   string `json:"job_title"`
	Location   string `json:"location"`
	Role       string `json:"role"`
	Status     string `json:"status"`
}
