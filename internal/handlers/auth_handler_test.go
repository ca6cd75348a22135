package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// Registration requests are validated before the store is touched, so the
// rejection paths run against a handler with no database.
func registerTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	RegisterCustomValidators()

	h := NewHandler(nil, nil, nil, nil)
	r := gin.New()
	r.POST("/api/auth/register", h.RegisterUser)
	r.POST("/api/auth/login", h.Login)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func registerBody(password, phone string) string {
	return `{
		"firstName": "A",
		"lastName": "B",
		"email": "a@b.com",
		"password": "` + password + `",
		"role": "patient",
		"phoneNumber": "` + phone + `",
		"dateOfBirth": "1990-01-01",
		"gender": "male",
		"address": {
			"streetAddress": "1 Main St",
			"city": "Springfield",
			"state": "IL",
			"zipcode": "62704"
		}
	}`
}

func TestRegisterRejectsWeakPasswords(t *testing.T) {
	r := registerTestRouter()

	for _, password := range []string{"short1!", "password1!", "PASSWORD!!", "Password11"} {
		w := postJSON(r, "/api/auth/register", registerBody(password, "1234567890"))
		assert.Equal(t, http.StatusBadRequest, w.Code, "password %q", password)
	}
}

func TestRegisterRejectsBadPhoneNumber(t *testing.T) {
	r := registerTestRouter()

	w := postJSON(r, "/api/auth/register", registerBody("Password1!", "12345"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/api/auth/register", registerBody("Password1!", "12345abcde"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	r := registerTestRouter()

	w := postJSON(r, "/api/auth/register", `{"email": "a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid registration data")
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	r := registerTestRouter()

	body := strings.Replace(registerBody("Password1!", "1234567890"), `"role": "patient"`, `"role": "superuser"`, 1)
	w := postJSON(r, "/api/auth/register", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginRejectsMalformedRequest(t *testing.T) {
	r := registerTestRouter()

	w := postJSON(r, "/api/auth/login", `{"email": "not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email and password are required")
}
