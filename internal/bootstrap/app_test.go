package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/hr_onboarding_portal/internal/config"
	"github.com/locvowork/hr_onboarding_portal/internal/database"
	"github.com/locvowork/hr_onboarding_portal/internal/handler"
	"github.com/locvowork/hr_onboarding_portal/internal/mailer"
	"github.com/locvowork/hr_onboarding_portal/internal/messaging"
	"github.com/locvowork/hr_onboarding_portal/internal/repository/memory"
	"github.com/locvowork/hr_onboarding_portal/internal/service"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
	"github.com/locvowork/hr_onboarding_portal/internal/storage"
)

const seedPassword = "Welcome@123"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	t   *testing.T
	app *App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	if config.DefaultEnvConfig == nil {
		require.NoError(t, config.LoadEnvConfig())
	}

	store := memory.New()
	app := NewApp()
	app.Employees, app.Forms, app.Documents, app.AuditLog = store.Employees(), store.Forms(), store.Documents(), store.AuditLog()
	app.Publisher = messaging.LogPublisher{}
	app.Tokens = session.NewManager("test-secret", time.Hour)
	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	app.Files = files

	_, err = database.NewDataSeeder(app.Employees, app.Forms, seedPassword).SeedData(ctx, 1, 1)
	require.NoError(t, err)

	empSvc := service.NewEmployeeService(app.Employees, app.Forms, nil, app.AuditLog)
	app.RegisterMiddlewares()
	app.RegisterRoutes(Handlers{
		Auth:     handler.NewAuthHandler(service.NewAuthService(app.Employees, app.Tokens, app.AuditLog, nil)),
		Employee: handler.NewEmployeeHandler(empSvc, service.NewExportService(empSvc)),
		Form:     handler.NewFormHandler(service.NewFormService(app.Employees, app.Forms, app.Files, app.AuditLog)),
		Document: handler.NewDocumentHandler(service.NewDocumentService(app.Employees, app.Documents, app.Files, app.AuditLog)),
		Email:    handler.NewEmailHandler(service.NewEmailService(app.Employees, mailer.New(app.Publisher, "", "http://portal.test"), app.AuditLog)),
		Admin:    handler.NewAdminHandler(service.NewReindexService(app.Employees, nil)),
	})
	return &testServer{t: t, app: app}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return s.serve(req, token)
}

func (s *testServer) serve(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.app.Echo.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get(echo.HeaderContentType) == echo.MIMEApplicationJSONCharsetUTF8 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) login(email string) string {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/auth/login", "", handler.LoginRequest{Email: email, Password: seedPassword})
	require.Equal(s.t, http.StatusOK, rec.Code, env.Error)
	var tok session.Token
	require.NoError(s.t, json.Unmarshal(env.Data, &tok))
	return tok.AccessToken
}

func TestHealthAndAuthGate(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, env = s.do(http.MethodGet, "/api/employees", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)

	rec, _ = s.do(http.MethodGet, "/api/employees", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = s.do(http.MethodPost, "/api/auth/login", "", handler.LoginRequest{Email: database.SuperAdminEmail, Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Login failed", env.Message)
}

func TestRegisterLoginAndSelfService(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(database.SuperAdminEmail)

	rec, env := s.do(http.MethodPost, "/api/auth/register", admin, service.RegisterInput{
		Email:     "joiner@corp.test",
		FirstName: "Joiner",
		Password:  seedPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	rec, _ = s.do(http.MethodPost, "/api/auth/register", admin, service.RegisterInput{Email: "joiner@corp.test", FirstName: "Again"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	joiner := s.login("joiner@corp.test")

	rec, env = s.do(http.MethodGet, "/api/employees/me", joiner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "Profile Pending", me.Status)

	rec, _ = s.do(http.MethodGet, "/api/employees", joiner, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/forms/application", joiner, handler.SaveRequest{Data: map[string]interface{}{"a": "b"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(http.MethodPut, "/api/employees/me/basic-info", joiner, handler.SaveRequest{
		Data:   map[string]interface{}{"firstName": "Joiner", "mobile": "9876543210"},
		Submit: true,
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	rec, env = s.do(http.MethodPost, "/api/employees/"+me.ID+"/verify-basic-info", admin, handler.ReviewRequest{Status: "REJECTED", Reason: "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, env.Error)

	rec, env = s.do(http.MethodPost, "/api/employees/"+me.ID+"/verify-basic-info", admin, handler.ReviewRequest{Status: "VERIFIED"})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	rec, env = s.do(http.MethodGet, "/api/employees/me/guard?path=/employee/pre-joining/application", joiner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"allowed":true`)

	rec, env = s.do(http.MethodPost, "/api/forms/application", joiner, handler.SaveRequest{Data: map[string]interface{}{"fatherName": "R"}, Submit: true})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	assert.Equal(t, "Form submitted successfully", env.Message)

	rec, _ = s.do(http.MethodPost, "/api/forms/application", joiner, handler.SaveRequest{Submit: true})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/forms/employee/"+me.ID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var forms []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &forms))
	assert.Len(t, forms, 8)
}

func registerJoiner(t *testing.T, s *testServer, admin, email, stage string) string {
	t.Helper()
	rec, env := s.do(http.MethodPost, "/api/auth/register", admin, service.RegisterInput{Email: email, FirstName: "Joiner", Password: seedPassword})
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	var res struct {
		Employee struct {
			ID string `json:"id"`
		} `json:"employee"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	rec, env = s.do(http.MethodPost, "/api/employees/"+res.Employee.ID+"/advance-stage", admin, handler.AdvanceStageRequest{Stage: stage})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	return res.Employee.ID
}

func TestRejectionReasonVisibleThroughAutoFill(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(database.SuperAdminEmail)
	id := registerJoiner(t, s, admin, "epf@corp.test", "POST_JOINING")
	joiner := s.login("epf@corp.test")

	rec, env := s.do(http.MethodPost, "/api/forms/epf", joiner, handler.SaveRequest{Data: map[string]interface{}{"uan": "100200300400"}, Submit: true})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	reason := "Father's name & PAN don't match"
	rec, env = s.do(http.MethodPost, "/api/forms/epf/verify/"+id, admin, handler.ReviewRequest{Status: "REJECTED", Reason: reason})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	rec, env = s.do(http.MethodGet, "/api/forms/auto-fill/"+id, joiner, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	var fill struct {
		Data      map[string]interface{} `json:"data"`
		BasicInfo struct {
			Status string `json:"status"`
		} `json:"basicInfo"`
		Forms map[string]struct {
			Status          string `json:"status"`
			Disabled        bool   `json:"disabled"`
			RejectionReason string `json:"rejectionReason"`
			VerifiedByName  string `json:"verifiedByName"`
		} `json:"forms"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &fill))
	assert.Equal(t, "100200300400", fill.Data["uan"])
	require.Len(t, fill.Forms, 8)
	assert.Equal(t, "REJECTED", fill.Forms["epf"].Status)
	assert.Equal(t, reason, fill.Forms["epf"].RejectionReason)
	assert.NotEmpty(t, fill.Forms["epf"].VerifiedByName)
	assert.Equal(t, "PENDING", fill.Forms["nda"].Status)
	assert.NotEmpty(t, fill.BasicInfo.Status)
}

func TestDeactivatedTokenIsRefused(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(database.SuperAdminEmail)
	id := registerJoiner(t, s, admin, "leaver@corp.test", "PRE_JOINING")
	token := s.login("leaver@corp.test")

	rec, _ := s.do(http.MethodGet, "/api/employees/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := s.do(http.MethodDelete, "/api/employees/"+id, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	rec, _ = s.do(http.MethodGet, "/api/employees/me", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(http.MethodPost, "/api/employees/"+id+"/activate", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	rec, _ = s.do(http.MethodGet, "/api/employees/me", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDocumentUploadOverMultipart(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(database.SuperAdminEmail)

	rec, env := s.do(http.MethodPost, "/api/auth/register", admin, service.RegisterInput{Email: "doc@corp.test", FirstName: "Doc", Password: seedPassword})
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	var res struct {
		Employee struct {
			ID string `json:"id"`
		} `json:"employee"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	rec, env = s.do(http.MethodPost, "/api/employees/"+res.Employee.ID+"/advance-stage", admin, handler.AdvanceStageRequest{Stage: "PRE_JOINING"})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	token := s.login("doc@corp.test")

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("docType", "pan_card"))
	part, err := w.CreateFormFile("file", "pan.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec, env = s.serve(req, token)
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	rec, env = s.do(http.MethodGet, "/api/documents", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "pan_card", docs[0]["docType"])
	assert.NotContains(t, docs[0], "StoragePath")

	rec, _ = s.do(http.MethodGet, "/api/documents/"+docs[0]["id"].(string)+"/file", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "pan.pdf")
}

func TestExportAndReindexRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(database.SuperAdminEmail)

	rec, _ := s.do(http.MethodGet, "/api/employees/export?format=csv", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "roster_")
	assert.Contains(t, rec.Body.String(), "Onboarding Roster")

	rec, _ = s.do(http.MethodGet, "/api/employees/export?format=pdf", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/employees/roster?sort=sideways", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := s.do(http.MethodGet, "/api/employees/roster?pageSize=2&sort=doj_asc", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Entries []json.RawMessage `json:"entries"`
		Total   int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Entries, 2)
	assert.Greater(t, page.Total, 2)

	rec, _ = s.do(http.MethodPost, "/api/admin/reindex", admin, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
