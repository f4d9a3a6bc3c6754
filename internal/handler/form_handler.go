package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/hr_onboarding_portal/internal/service"
	"github.com/locvowork/hr_onboarding_portal/internal/service/serviceutils"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
)

type FormHandler struct {
	svc *service.FormService
}

func NewFormHandler(svc *service.FormService) *FormHandler {
	return &FormHandler{svc: svc}
}

// SaveHandler accepts JSON {data, submit} or multipart with an optional "signature" file.
func (h *FormHandler) SaveHandler(c echo.Context) error {
	p, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	req, err := bindSave(c)
	if err != nil {
		return serviceutils.Fail(c, "Invalid request body", err)
	}
	var signature *service.Upload
	if isMultipart(c) {
		if signature, err = readUpload(c, "signature", service.MaxSignatureSize); err != nil {
			return serviceutils.Fail(c, "Invalid signature upload", err)
		}
	}

	form, err := h.svc.Save(c.Request().Context(), p, c.Param("formName"), req.Data, req.Submit, signature)
	if err != nil {
		return serviceutils.Fail(c, "Failed to save form", err)
	}

	msg := "Form saved successfully"
	if req.Submit {
		msg = "Form submitted successfully"
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, msg, form)
}

func (h *FormHandler) GetHandler(c echo.Context) error {
	p, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	form, err := h.svc.Get(c.Request().Context(), p, c.Param("formName"))
	if err != nil {
		return serviceutils.Fail(c, "Failed to get form", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Form retrieved successfully", form)
}

func (h *FormHandler) ListForEmployeeHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	forms, err := h.svc.ListForEmployee(c.Request().Context(), actor, c.Param("employeeId"))
	if err != nil {
		return serviceutils.Fail(c, "Failed to list forms", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Forms listed successfully", forms)
}

func (h *FormHandler) VerifyHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	form, err := h.svc.Verify(c.Request().Context(), actor, c.Param("formName"), c.Param("employeeId"), req.Status, req.remarks())
	if err != nil {
		return serviceutils.Fail(c, "Failed to review form", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Form reviewed successfully", form)
}

func (h *FormHandler) AutoFillHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	data, err := h.svc.AutoFill(c.Request().Context(), actor, c.Param("employeeId"))
	if err != nil {
		return serviceutils.Fail(c, "Failed to build auto-fill data", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Auto-fill data retrieved successfully", data)
}
