package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/onboarding"
	"github.com/locvowork/hr_onboarding_portal/internal/service"
	"github.com/locvowork/hr_onboarding_portal/internal/service/serviceutils"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// SaveRequest carries a form or basic-info payload. Submit false saves a draft.
type SaveRequest struct {
	Data   map[string]interface{} `json:"data"`
	Submit bool                   `json:"submit"`
}

// ReviewRequest is an HR decision. Reason is accepted as an alias of Remarks.
type ReviewRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
	Reason  string `json:"reason"`
}

func (r ReviewRequest) remarks() string {
	if strings.TrimSpace(r.Remarks) != "" {
		return r.Remarks
	}
	return r.Reason
}

// AdvanceStageRequest is the body of POST /employees/:id/advance-stage.
type AdvanceStageRequest struct {
	Stage string `json:"stage"`
}

// FormAccessRequest is the body of PUT /employees/:id/form-access.
type FormAccessRequest struct {
	FormName string `json:"formName"`
	Disabled bool   `json:"disabled"`
}

// WelcomeEmailRequest is the body of both welcome email routes.
type WelcomeEmailRequest struct {
	EmployeeID        string `json:"employeeId"`
	TemporaryPassword string `json:"temporaryPassword"`
}

// HRContact is what an employee sees of its onboarding HR.
type HRContact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

func toHRContact(e *domain.Employee) HRContact {
	return HRContact{ID: e.ID, Name: e.FullName(), Email: e.Email, Phone: e.Phone}
}

// rosterFilter reads the roster filters from the query string.
func rosterFilter(c echo.Context) onboarding.RosterFilter {
	return onboarding.RosterFilter{
		Status:     c.QueryParam("status"),
		Department: c.QueryParam("department"),
		JobTitle:   c.QueryParam("jobTitle"),
		Location:   c.QueryParam("location"),
		AssignedHR: c.QueryParam("assignedHR"),
		Search:     c.QueryParam("search"),
	}
}

// rosterQuery reads filters, sort and page. Missing or invalid numbers fall back to the defaults.
func rosterQuery(c echo.Context) (onboarding.RosterQuery, error) {
	key, err := onboarding.ParseSortKey(c.QueryParam("sort"))
	if err != nil {
		return onboarding.RosterQuery{}, fmt.Errorf("%w: %v", serviceutils.ErrBadRequest, err)
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))
	return onboarding.RosterQuery{
		Filter:   rosterFilter(c),
		Sort:     key,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// bindSave reads a SaveRequest from JSON or from multipart fields "data" and "submit".
func bindSave(c echo.Context) (SaveRequest, error) {
	var req SaveRequest
	if !isMultipart(c) {
		err := c.Bind(&req)
		return req, err
	}
	if raw := c.FormValue("data"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Data); err != nil {
			return req, fmt.Errorf("%w: data must be a JSON object", serviceutils.ErrBadRequest)
		}
	}
	if raw := c.FormValue("submit"); raw != "" {
		submit, err := strconv.ParseBool(raw)
		if err != nil {
			return req, fmt.Errorf("%w: submit must be a boolean", serviceutils.ErrBadRequest)
		}
		req.Submit = submit
	}
	return req, nil
}

// readUpload reads a multipart file. At most max+1 bytes are read so the service can
// reject oversized files. A missing field yields nil.
func readUpload(c echo.Context, field string, max int64) (*service.Upload, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", serviceutils.ErrBadRequest, err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, err
	}
	return &service.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}
