package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

func TestErrorWritesEnvelopeWithDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.ErrInsufficientTeacherHours.WithDetails("remainingHours", 2.5))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.True(t, c.IsAborted())

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INSUFFICIENT_TEACHER_HOURS", body.Error.Code)
	assert.Equal(t, 2.5, body.Error.Details["remainingHours"])
}

func TestJSONIncludesMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	JSON(c, http.StatusOK, []string{"a"}, map[string]interface{}{"total": 1})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":["a"],"meta":{"total":1}}`, w.Body.String())
}
