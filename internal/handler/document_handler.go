package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/hr_onboarding_portal/internal/service"
	"github.com/locvowork/hr_onboarding_portal/internal/service/serviceutils"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
)

type DocumentHandler struct {
	svc *service.DocumentService
}

func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

func (h *DocumentHandler) RequiredHandler(c echo.Context) error {
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Required documents retrieved successfully", h.svc.Required())
}

func (h *DocumentHandler) ListMineHandler(c echo.Context) error {
	p, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	docs, err := h.svc.List(c.Request().Context(), p, p.ID)
	if err != nil {
		return serviceutils.Fail(c, "Failed to list documents", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Documents listed successfully", docs)
}

func (h *DocumentHandler) ListForEmployeeHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	docs, err := h.svc.List(c.Request().Context(), actor, c.Param("employeeId"))
	if err != nil {
		return serviceutils.Fail(c, "Failed to list documents", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Documents listed successfully", docs)
}

func (h *DocumentHandler) UploadHandler(c echo.Context) error {
	p, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	file, err := readUpload(c, "file", service.MaxDocumentSize)
	if err != nil {
		return serviceutils.Fail(c, "Invalid file upload", err)
	}
	if file == nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Missing file", errors.New("multipart field \"file\" is required"))
	}

	doc, err := h.svc.Upload(c.Request().Context(), p, c.FormValue("docType"), *file)
	if err != nil {
		return serviceutils.Fail(c, "Failed to upload document", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Document uploaded successfully", doc)
}

func (h *DocumentHandler) DownloadHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	doc, data, err := h.svc.Download(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return serviceutils.Fail(c, "Failed to download document", err)
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.FileName))
	return c.Blob(http.StatusOK, contentType, data)
}

func (h *DocumentHandler) DeleteHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}

	if err := h.svc.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return serviceutils.Fail(c, "Failed to delete document", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Document deleted successfully", nil)
}

func (h *DocumentHandler) VerifyHandler(c echo.Context) error {
	actor, err := session.Current(c)
	if err != nil {
		return serviceutils.Fail(c, "Unauthorized", err)
	}
	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	doc, err := h.svc.Verify(c.Request().Context(), actor, c.Param("id"), req.Status, req.remarks())
	if err != nil {
		return serviceutils.Fail(c, "Failed to review document", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Document reviewed successfully", doc)
}
