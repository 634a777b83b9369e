package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Wrap(errors.New("bad"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	return v.claims, nil
}

func newProtectedRouter(role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/timetable/entries", JWT(validatorStub{claims: &models.JWTClaims{UserID: "u-1", Role: role}}), Planners(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return router
}

func TestJWTAndRBAC(t *testing.T) {
	cases := []struct {
		name   string
		role   models.UserRole
		header string
		want   int
	}{
		{name: "missing header", role: models.RolePlanner, want: http.StatusUnauthorized},
		{name: "malformed header", role: models.RolePlanner, header: "Token good", want: http.StatusUnauthorized},
		{name: "invalid token", role: models.RolePlanner, header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "viewer forbidden", role: models.RoleViewer, header: "Bearer good", want: http.StatusForbidden},
		{name: "planner allowed", role: models.RolePlanner, header: "Bearer good", want: http.StatusCreated},
		{name: "admin allowed", role: models.RoleAdmin, header: "bearer good", want: http.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newProtectedRouter(tc.role)
			req := httptest.NewRequest(http.MethodPost, "/timetable/entries", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/timetable", OptionalJWT(validatorStub{claims: &models.JWTClaims{UserID: "u-2"}}), func(c *gin.Context) {
		_, found := c.Get(ContextUserKey)
		c.JSON(http.StatusOK, gin.H{"authenticated": found})
	})

	for header, want := range map[string]string{"": `{"authenticated":false}`, "Bearer nope": `{"authenticated":false}`, "Bearer good": `{"authenticated":true}`} {
		req := httptest.NewRequest(http.MethodGet, "/timetable", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, want, w.Body.String())
	}
}

type observerStub struct {
	mu    sync.Mutex
	paths []string
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paths = append(o.paths, method+" "+path)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &observerStub{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/imports/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/imports/abc", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, []string{"GET /imports/:id", "GET unmatched"}, observer.paths)
}
