package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rongwang/property-rental-server/internal/api"
	"github.com/rongwang/property-rental-server/internal/auth"
	"github.com/rongwang/property-rental-server/internal/config"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/policy"
	"github.com/rongwang/property-rental-server/internal/repository"
	"github.com/rongwang/property-rental-server/internal/service"
	"github.com/rongwang/property-rental-server/internal/utils"
	"github.com/stretchr/testify/require"
)

// TestPassword is the password of every user created by CreateTestUser.
const TestPassword = "Secret#123"

// Now is the service clock used by SetupTestContext.
var Now = time.Date(2030, 6, 15, 10, 0, 0, 0, time.UTC)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository repository.Repository
	Service    service.Service
	Tokens     *auth.TokenService
	DB         *sqlx.DB
}

// TestUser is a user created directly in the repository together with a
// valid session token.
type TestUser struct {
	ID    int64
	Actor policy.Actor
	Token string
}

// SetupTestContext creates a new test context backed by an in-memory
// SQLite database with the schema and lookups in place.
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()
	utils.SilenceLogger()

	db, err := config.OpenDatabase(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err, "Failed to open test database")
	require.NoError(t, config.CreateTables(db), "Failed to create tables")

	tokens, err := auth.NewTokenService("test-secret-key", 20*time.Minute)
	require.NoError(t, err)

	// Create repository
	repo := repository.NewSQLRepository(db)

	// Create service
	svc := service.NewDefaultService(repo, tokens,
		service.WithClock(func() time.Time { return Now }),
		service.WithMaxUploadBytes(1<<20),
	)

	// Create API handler
	handler := api.NewHandler(svc, tokens, false)

	// Set up Gin router
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.SetupRoutes(router)

	return &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		Tokens:     tokens,
		DB:         db,
	}
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(tc *TestContext) {
	if tc.DB != nil {
		tc.DB.Close()
	}
}

// CreateTestUser stores a user with the given role and issues a token for it.
func (tc *TestContext) CreateTestUser(t *testing.T, username string, role policy.Role) TestUser {
	t.Helper()

	hashedPassword, err := auth.HashPassword(TestPassword)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		Email:        username + "@example.com",
		PhoneNumber:  "514-555-0100",
		PasswordHash: hashedPassword,
		Role:         role.String(),
	}
	require.NoError(t, tc.Repository.CreateUser(context.Background(), user), "Failed to create test user")

	token, err := tc.Tokens.Issue(user.ID, user.Username, role)
	require.NoError(t, err, "Failed to generate JWT token")

	return TestUser{
		ID:    user.ID,
		Actor: policy.Actor{ID: user.ID, Username: user.Username, Role: role},
		Token: token,
	}
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// FormFile is a file part for PerformMultipart.
type FormFile struct {
	Field    string
	Filename string
	Data     []byte
}

// PerformMultipart executes a multipart/form-data request with the given
// fields and optional file.
func PerformMultipart(r http.Handler, method, path string, fields map[string]string, file *FormFile, headers map[string]string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if file != nil {
		fw, _ := mw.CreateFormFile(file.Field, file.Filename)
		_, _ = fw.Write(file.Data)
	}
	_ = mw.Close()

	req, _ := http.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// DecodeJSON unmarshals a response body into v.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
