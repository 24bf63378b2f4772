package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"

	"healthcare-risk-platform/internal/config"
	"healthcare-risk-platform/internal/models"
	"healthcare-risk-platform/internal/store"
	"healthcare-risk-platform/internal/store/storetest"
	"healthcare-risk-platform/internal/utils"
)

const testSecret = "routes-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

type api struct {
	t      *testing.T
	router *gin.Engine
	store  *store.Store
	tokens map[models.Role]string
	users  map[models.Role]*models.User
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "testing",
		JWTSecret:   testSecret,
		CORSOrigins: []string{"*"},
		Pagination:  config.PaginationConfig{ItemsPerPage: 20, MaxItemsPerPage: 100},
	}
}

func newAPI(t *testing.T) *api {
	t.Helper()
	s := storetest.New(t)
	a := &api{
		t:      t,
		router: SetupRouter(Options{Config: testConfig(), Store: s}),
		store:  s,
		tokens: map[models.Role]string{},
		users:  map[models.Role]*models.User{},
	}
	for _, role := range []models.Role{models.RoleAdmin, models.RoleClinician, models.RoleViewer} {
		u, err := s.CreateUser(context.Background(), store.NewUser{
			Username: string(role) + "1",
			Email:    string(role) + "1@example.org",
			Password: "correct-horse",
			Role:     role,
		})
		require.NoError(t, err)
		tok, err := utils.GenerateAccessToken(u, testSecret, time.Hour)
		require.NoError(t, err)
		a.users[role] = u
		a.tokens[role] = tok
	}
	return a
}

func (a *api) do(role models.Role, method, path string, body interface{}) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[role])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	assert.Equal(a.t, w.Code, env.StatusCode)
	return w.Code, env
}

func (a *api) createPatient(mrn string) string {
	a.t.Helper()
	code, env := a.do(models.RoleClinician, http.MethodPost, "/api/patients", gin.H{
		"mrn":         mrn,
		"firstName":   "Ada",
		"lastName":    "Lovelace",
		"dateOfBirth": "1980-12-10",
		"gender":      "F",
		"allergies":   []string{"penicillin"},
	})
	require.Equal(a.t, http.StatusCreated, code, env.Error)
	var p models.Patient
	require.NoError(a.t, json.Unmarshal(env.Data, &p))
	return p.ID
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestPublicEndpoints(t *testing.T) {
	a := newAPI(t)

	code, env := a.do("", http.MethodGet, "/api", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = a.do("", http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"database":"connected"`)

	code, env = a.do("", http.MethodGet, "/api/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
}

func TestHealth_DatabaseDown(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := models.OpenDialector(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), models.DatabaseConfig{})
	require.NoError(t, err)
	mock.ExpectExec("SELECT 1").WillReturnError(errors.New("connection refused"))

	router := SetupRouter(Options{Config: testConfig(), Store: store.New(db, nil, nil)})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Contains(t, string(env.Data), `"database":"disconnected"`)
	assert.Contains(t, string(env.Data), `"status":"unhealthy"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSecurityHeadersOnEveryResponse(t *testing.T) {
	a := newAPI(t)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nowhere", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestAuthentication(t *testing.T) {
	a := newAPI(t)

	code, _ := a.do("", http.MethodGet, "/api/patients", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	_, err := a.store.DeactivateUser(context.Background(), a.users[models.RoleViewer].ID)
	require.NoError(t, err)
	code, _ = a.do(models.RoleViewer, http.MethodGet, "/api/patients", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRoleGating(t *testing.T) {
	a := newAPI(t)
	patientID := a.createPatient("MRN-001")

	tests := []struct {
		name   string
		role   models.Role
		method string
		path   string
		body   interface{}
		code   int
	}{
		{"viewer reads patients", models.RoleViewer, http.MethodGet, "/api/patients", nil, http.StatusOK},
		{"viewer cannot record vitals", models.RoleViewer, http.MethodPost, "/api/patients/" + patientID + "/vitals", gin.H{"heartRate": 80}, http.StatusForbidden},
		{"viewer cannot create patients", models.RoleViewer, http.MethodPost, "/api/patients", gin.H{}, http.StatusForbidden},
		{"clinician cannot deactivate patients", models.RoleClinician, http.MethodDelete, "/api/patients/" + patientID, nil, http.StatusForbidden},
		{"clinician cannot list users", models.RoleClinician, http.MethodGet, "/api/users", nil, http.StatusForbidden},
		{"admin lists users", models.RoleAdmin, http.MethodGet, "/api/users", nil, http.StatusOK},
		{"clinician records vitals", models.RoleClinician, http.MethodPost, "/api/patients/" + patientID + "/vitals", gin.H{"heartRate": 80}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := a.do(tt.role, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, code, env.Error)
		})
	}
}

func TestPatientEndpoints(t *testing.T) {
	a := newAPI(t)
	id := a.createPatient("MRN-001")

	code, env := a.do(models.RoleClinician, http.MethodPost, "/api/patients", gin.H{
		"mrn": "MRN-001", "firstName": "Dup", "lastName": "Licate", "dateOfBirth": "1990-01-01", "gender": "M",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "already in use")

	code, env = a.do(models.RoleViewer, http.MethodGet, "/api/patients/mrn/MRN-001", nil)
	require.Equal(t, http.StatusOK, code)
	var p models.Patient
	decode(t, env.Data, &p)
	assert.Equal(t, id, p.ID)

	code, _ = a.do(models.RoleViewer, http.MethodGet, "/api/patients/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = a.do(models.RoleViewer, http.MethodGet, "/api/patients/6f1d3c1e-0000-4000-8000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = a.do(models.RoleClinician, http.MethodPut, "/api/patients/"+id, gin.H{"city": "Boston"})
	require.Equal(t, http.StatusOK, code, env.Error)
	decode(t, env.Data, &p)
	assert.Equal(t, "Boston", p.City)

	code, env = a.do(models.RoleClinician, http.MethodPost, "/api/patients/"+id+"/discharge", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	decode(t, env.Data, &p)
	assert.NotNil(t, p.DischargeDate)

	code, _ = a.do(models.RoleAdmin, http.MethodDelete, "/api/patients/"+id, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = a.do(models.RoleViewer, http.MethodGet, "/api/patients", nil)
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Items      []models.Patient `json:"items"`
		Pagination utils.Pagination `json:"pagination"`
	}
	decode(t, env.Data, &page)
	assert.Empty(t, page.Items)

	code, env = a.do(models.RoleViewer, http.MethodGet, "/api/patients?include_inactive=true", nil)
	require.Equal(t, http.StatusOK, code)
	decode(t, env.Data, &page)
	assert.Len(t, page.Items, 1)
	assert.EqualValues(t, 1, page.Pagination.Total)

	code, _ = a.do(models.RoleViewer, http.MethodGet, "/api/patients?per_page=500", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestClinicalRecordRules(t *testing.T) {
	a := newAPI(t)
	id := a.createPatient("MRN-001")
	missing := "/api/patients/6f1d3c1e-0000-4000-8000-000000000000"

	code, env := a.do(models.RoleClinician, http.MethodPost, "/api/patients/"+id+"/vitals", gin.H{"heartRate": 301})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "constraint violation")

	code, _ = a.do(models.RoleClinician, http.MethodPost, missing+"/vitals", gin.H{"heartRate": 70})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = a.do(models.RoleClinician, http.MethodPost, "/api/patients/"+id+"/risk", gin.H{"riskScore": 150})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(models.RoleClinician, http.MethodPost, "/api/patients/"+id+"/risk", gin.H{
		"riskScore":      82.5,
		"alertTriggered": true,
		"alertMessage":   "Readmission risk high",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var created struct {
		Assessment models.RiskAssessment `json:"assessment"`
		Alert      *models.Alert         `json:"alert"`
	}
	decode(t, env.Data, &created)
	assert.Equal(t, models.RiskCritical, created.Assessment.RiskCategory)
	require.NotNil(t, created.Assessment.CreatedBy)
	assert.Equal(t, a.users[models.RoleClinician].ID, *created.Assessment.CreatedBy)
	require.NotNil(t, created.Alert)

	code, env = a.do(models.RoleViewer, http.MethodGet, "/api/patients/"+id+"/risk/latest", nil)
	require.Equal(t, http.StatusOK, code)
	var latest models.RiskAssessment
	decode(t, env.Data, &latest)
	assert.Equal(t, created.Assessment.ID, latest.ID)

	code, env = a.do(models.RoleViewer, http.MethodGet, "/api/alerts?status=active", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), created.Alert.ID)

	alertPath := "/api/alerts/" + created.Alert.ID
	code, _ = a.do(models.RoleViewer, http.MethodPost, alertPath+"/acknowledge", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = a.do(models.RoleClinician, http.MethodPost, alertPath+"/acknowledge", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	var alert models.Alert
	decode(t, env.Data, &alert)
	assert.Equal(t, models.AlertStatusAcknowledged, alert.Status)
	assert.Equal(t, a.users[models.RoleClinician].ID, *alert.AcknowledgedBy)

	code, _ = a.do(models.RoleClinician, http.MethodPost, alertPath+"/resolve", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = a.do(models.RoleClinician, http.MethodPost, alertPath+"/acknowledge", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(models.RoleViewer, http.MethodGet, "/api/alerts?status=snoozed", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLabAndInterventionEndpoints(t *testing.T) {
	a := newAPI(t)
	id := a.createPatient("MRN-001")

	code, env := a.do(models.RoleClinician, http.MethodPost, "/api/patients/"+id+"/labs", gin.H{
		"testName":      "Creatinine",
		"testValue":     2.4,
		"referenceLow":  0.6,
		"referenceHigh": 1.2,
		"testDate":      "2024-05-02T07:30:00Z",
		"status":        "completed",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var lab models.LabResult
	decode(t, env.Data, &lab)
	assert.True(t, lab.IsAbnormal)

	code, _ = a.do(models.RoleClinician, http.MethodPut, "/api/labs/"+lab.ID, gin.H{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(models.RoleClinician, http.MethodPut, "/api/labs/"+lab.ID, gin.H{"status": "reviewed"})
	assert.Equal(t, http.StatusOK, code)

	code, env = a.do(models.RoleViewer, http.MethodGet, "/api/patients/"+id+"/labs?status=reviewed", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), lab.ID)

	code, env = a.do(models.RoleClinician, http.MethodPost, "/api/patients/"+id+"/interventions", gin.H{
		"interventionType": "medication_adjustment",
		"outcome":          "ongoing",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var in models.Intervention
	decode(t, env.Data, &in)
	require.NotNil(t, in.ClinicianID)
	assert.Equal(t, a.users[models.RoleClinician].ID, *in.ClinicianID)

	code, env = a.do(models.RoleClinician, http.MethodPut, "/api/interventions/"+in.ID+"/outcome", gin.H{"outcome": "successful", "notes": "stable"})
	require.Equal(t, http.StatusOK, code, env.Error)
	decode(t, env.Data, &in)
	assert.Equal(t, models.OutcomeSuccessful, in.Outcome)
	assert.Equal(t, "stable", in.Notes)
}

func TestUserEndpoints(t *testing.T) {
	a := newAPI(t)

	body := gin.H{"username": "nurse1", "email": "nurse1@example.org", "password": "correct-horse", "role": "clinician"}
	code, env := a.do(models.RoleAdmin, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusCreated, code, env.Error)
	assert.NotContains(t, string(env.Data), "password")
	var u models.UserSanitized
	decode(t, env.Data, &u)

	body["email"] = "other@example.org"
	code, _ = a.do(models.RoleAdmin, http.MethodPost, "/api/users", body)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(models.RoleAdmin, http.MethodPost, "/api/users", gin.H{"username": "x", "email": "bad", "password": "correct-horse"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(models.RoleAdmin, http.MethodPost, "/api/users", gin.H{"username": "longpass", "email": "longpass@example.org", "password": strings.Repeat("a", 80)})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(models.RoleAdmin, http.MethodDelete, "/api/users/"+u.ID, nil)
	require.Equal(t, http.StatusOK, code)
	decode(t, env.Data, &u)
	assert.False(t, u.IsActive)

	code, env = a.do(models.RoleViewer, http.MethodPut, "/api/auth/profile", gin.H{"firstName": "Vera"})
	require.Equal(t, http.StatusOK, code, env.Error)
	decode(t, env.Data, &u)
	assert.Equal(t, "Vera", u.FirstName)
	assert.Equal(t, models.RoleViewer, u.Role)
}
