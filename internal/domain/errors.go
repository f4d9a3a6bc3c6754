package domain

import "errors"

var (
	ErrEmployeeNotFound     = errors.New("employee: not found")
	ErrEmailAlreadyExists   = errors.New("employee: email already exists")
	ErrInvalidEmail         = errors.New("employee: invalid email")
	ErrInvalidPhone         = errors.New("employee: mobile number must be 10 digits")
	ErrInvalidPincode       = errors.New("employee: pincode must be 6 digits")
	ErrInvalidDate          = errors.New("employee: invalid date, expected YYYY-MM-DD")
	ErrInvalidName          = errors.New("employee: first name is required")
	ErrInvalidRole          = errors.New("employee: invalid role")
	ErrInvalidStage         = errors.New("employee: invalid onboarding stage")
	ErrInvalidAccountStatus = errors.New("employee: invalid account status")
	ErrInvalidHR            = errors.New("employee: onboarding HR must be an HR account")

	ErrInvalidStageTransition = errors.New("stage: invalid transition")

	ErrUnknownForm             = errors.New("form: unknown form")
	ErrInvalidFormStatus       = errors.New("form: invalid status")
	ErrInvalidFormTransition   = errors.New("form: invalid transition")
	ErrRejectionReasonTooShort = errors.New("form: rejection reason must be at least 10 characters")
	ErrFormNotReachable        = errors.New("form: not reachable at the current onboarding stage")
	ErrFormNotFound            = errors.New("form: not found")
	ErrSignatureTooLarge       = errors.New("form: signature exceeds 200KB")

	ErrUnknownDocumentType = errors.New("document: unknown document type")
	ErrDocumentNotFound    = errors.New("document: not found")
	ErrDocumentTooLarge    = errors.New("document: file exceeds the size limit")
	ErrDocumentLocked      = errors.New("document: verified documents cannot be removed")

	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAccountDeactivated = errors.New("auth: account is deactivated")
	ErrUnauthorized       = errors.New("auth: missing or invalid token")
	ErrForbidden          = errors.New("auth: forbidden")
	ErrWeakPassword       = errors.New("auth: password must be at least 8 characters")
)
