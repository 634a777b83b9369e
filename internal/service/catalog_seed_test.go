package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-planner-api/internal/models"
)

func TestLoadCatalogSeedEmbedded(t *testing.T) {
	seed, err := LoadCatalogSeed("")
	require.NoError(t, err)

	assert.NotEmpty(t, seed.Rooms)
	assert.NotEmpty(t, seed.Teachers)
	assert.NotEmpty(t, seed.Curriculum["TRONC COMMUN"][1])
	for _, r := range seed.Rooms {
		assert.Positive(t, r.Capacity)
	}
}

func TestLoadCatalogSeedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `
rooms:
  - {id: 7, name: Salle 7, capacity: 12}
teachers:
  - {id: 3, matricule: X-1, name: Test, hours_planned: 10}
curriculum:
  GIT:
    2: [Réseaux]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	seed, err := LoadCatalogSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Rooms, 1)
	assert.Equal(t, "Salle 7", seed.Rooms[0].Name)
	assert.Equal(t, []string{"Réseaux"}, seed.Curriculum["GIT"][2])
}

func TestParseCatalogSeedValidation(t *testing.T) {
	cases := map[string]string{
		"zero capacity":     "rooms:\n  - {id: 1, name: A, capacity: 0}\n",
		"duplicate room":    "rooms:\n  - {id: 1, name: A, capacity: 5}\n  - {id: 1, name: B, capacity: 5}\n",
		"missing matricule": "teachers:\n  - {id: 1, name: A}\n",
		"duplicate teacher": "teachers:\n  - {id: 1, matricule: A}\n  - {id: 1, matricule: B}\n",
		"negative teacher":  "teachers:\n  - {id: -3, matricule: A}\n",
		"nan hours":         "teachers:\n  - {id: 1, matricule: A, hours_planned: .nan}\n",
		"inf hours":         "teachers:\n  - {id: 1, matricule: A, hours_done: .inf}\n",
		"level range":       "curriculum:\n  GIT:\n    6: [X]\n",
		"not yaml":          "rooms: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalogSeed([]byte(doc))
			assert.Error(t, err)
		})
	}
}

type registryReaderStub struct {
	rooms    []models.Room
	teachers []models.Teacher
	err      error
}

func (r registryReaderStub) ListRooms(context.Context) ([]models.Room, error) {
	return r.rooms, r.err
}

func (r registryReaderStub) ListTeachers(context.Context) ([]models.Teacher, error) {
	return r.teachers, nil
}

func (r registryReaderStub) ListCurriculum(context.Context) (models.Curriculum, error) {
	return nil, nil
}

func TestLoadRegistrySeedFallsBackPerSection(t *testing.T) {
	fallback := fixtureSeed()
	reader := registryReaderStub{rooms: []models.Room{{ID: 9, Name: "Registry room", Capacity: 50}}}

	seed, err := LoadRegistrySeed(context.Background(), reader, fallback)
	require.NoError(t, err)
	assert.Equal(t, reader.rooms, seed.Rooms)
	assert.Equal(t, fallback.Teachers, seed.Teachers)
	assert.Equal(t, fallback.Curriculum, seed.Curriculum)

	_, err = LoadRegistrySeed(context.Background(), registryReaderStub{err: errors.New("down")}, fallback)
	assert.Error(t, err)
}
