package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-planner-api/internal/models"
)

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string                 `json:"code"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type catalogStub struct{}

func (catalogStub) ListRooms() []models.Room {
	return []models.Room{{ID: 1, Name: "Amphi A", Capacity: 220}}
}

func (catalogStub) ListTeachers() []models.Teacher {
	return []models.Teacher{{ID: 1, Matricule: "T-1", Name: "Alice", HoursPlanned: 10, HoursDone: 4}}
}

func (catalogStub) Programs() []models.Program {
	return []models.Program{{Name: "GIT", Levels: []int{1, 2}}}
}

func (catalogStub) SubjectsFor(program string, level int) []string {
	if program == "GIT" && level == 1 {
		return []string{"Algorithmique"}
	}
	return []string{}
}

func (catalogStub) Version() string { return "abc.1" }

func TestCatalogHandlerTeachers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewCatalogHandler(catalogStub{})

	c, w := newGinContext(http.MethodGet, "/catalog/teachers", nil)
	h.Teachers(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "abc.1", env.Meta["catalog_version"])
	var teachers []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &teachers))
	require.Len(t, teachers, 1)
	assert.Equal(t, 6.0, teachers[0]["hours_remaining"])
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestCatalogHandlerSubjects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewCatalogHandler(catalogStub{})

	c, w := newGinContext(http.MethodGet, "/catalog/programs/GIT/levels/1/subjects", nil)
	c.Params = gin.Params{{Key: "program", Value: "GIT"}, {Key: "level", Value: "1"}}
	h.Subjects(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Algorithmique"]`, string(decodeEnvelope(t, w).Data))

	c, w = newGinContext(http.MethodGet, "/catalog/programs/XYZ/levels/4/subjects", nil)
	c.Params = gin.Params{{Key: "program", Value: "XYZ"}, {Key: "level", Value: "4"}}
	h.Subjects(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(decodeEnvelope(t, w).Data))

	c, w = newGinContext(http.MethodGet, "/catalog/programs/GIT/levels/9/subjects", nil)
	c.Params = gin.Params{{Key: "program", Value: "GIT"}, {Key: "level", Value: "9"}}
	h.Subjects(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogHandlerRoomsAndPrograms(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewCatalogHandler(catalogStub{})

	c, w := newGinContext(http.MethodGet, "/catalog/rooms", nil)
	h.Rooms(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decodeEnvelope(t, w).Meta["total"])

	c, w = newGinContext(http.MethodGet, "/catalog/programs", nil)
	h.Programs(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"GIT","levels":[1,2]}]`, string(decodeEnvelope(t, w).Data))
}
