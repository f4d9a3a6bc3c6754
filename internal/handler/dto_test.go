package handler

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/onboarding"
	"github.com/locvowork/hr_onboarding_portal/internal/service/serviceutils"
)

func newContext(req *http.Request) echo.Context {
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func multipartRequest(t *testing.T, fields map[string]string, file string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != "" {
		part, err := w.CreateFormFile(file, file+".png")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestReviewRequestRemarks(t *testing.T) {
	assert.Equal(t, "from remarks", ReviewRequest{Remarks: "from remarks", Reason: "from reason"}.remarks())
	assert.Equal(t, "from reason", ReviewRequest{Remarks: "  ", Reason: "from reason"}.remarks())
}

func TestRosterQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?status=In+Progress&department=Sales&sort=doj_desc&page=2&pageSize=x", nil)
	q, err := rosterQuery(newContext(req))
	require.NoError(t, err)
	assert.Equal(t, "In Progress", q.Filter.Status)
	assert.Equal(t, "Sales", q.Filter.Department)
	assert.Equal(t, onboarding.SortKey("doj_desc"), q.Sort)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 0, q.PageSize)

	req = httptest.NewRequest(http.MethodGet, "/?sort=name", nil)
	_, err = rosterQuery(newContext(req))
	require.Error(t, err)
	assert.True(t, errors.Is(err, serviceutils.ErrBadRequest))
	assert.Equal(t, http.StatusBadRequest, serviceutils.StatusFor(err))
}

func TestBindSave(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"data":{"city":"Pune"},"submit":true}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		got, err := bindSave(newContext(req))
		require.NoError(t, err)
		assert.True(t, got.Submit)
		assert.Equal(t, "Pune", got.Data["city"])
	})

	t.Run("multipart", func(t *testing.T) {
		req := multipartRequest(t, map[string]string{"data": `{"city":"Pune"}`, "submit": "true"}, "", nil)
		got, err := bindSave(newContext(req))
		require.NoError(t, err)
		assert.True(t, got.Submit)
		assert.Equal(t, "Pune", got.Data["city"])
	})

	t.Run("multipart bad data", func(t *testing.T) {
		req := multipartRequest(t, map[string]string{"data": `[1,2]`}, "", nil)
		_, err := bindSave(newContext(req))
		assert.True(t, errors.Is(err, serviceutils.ErrBadRequest))
	})

	t.Run("multipart bad submit", func(t *testing.T) {
		req := multipartRequest(t, map[string]string{"submit": "maybe"}, "", nil)
		_, err := bindSave(newContext(req))
		assert.True(t, errors.Is(err, serviceutils.ErrBadRequest))
	})
}

func TestReadUpload(t *testing.T) {
	req := multipartRequest(t, nil, "signature", bytes.Repeat([]byte{'x'}, 64))
	c := newContext(req)

	up, err := readUpload(c, "signature", 16)
	require.NoError(t, err)
	require.NotNil(t, up)
	assert.Equal(t, "signature.png", up.FileName)
	assert.Len(t, up.Data, 17, "reads one byte past the limit so the caller can reject it")

	missing, err := readUpload(c, "file", 16)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestToHRContact(t *testing.T) {
	e := &domain.Employee{ID: "hr-1", FirstName: "Asha", LastName: "Rao", Email: "asha@corp.test", Phone: "9876543210"}
	assert.Equal(t, HRContact{ID: "hr-1", Name: "Asha Rao", Email: "asha@corp.test", Phone: "9876543210"}, toHRContact(e))
}
