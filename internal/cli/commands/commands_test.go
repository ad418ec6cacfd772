package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ChangJoo-Park/json-api/internal/config"
	"github.com/ChangJoo-Park/json-api/internal/docstore/memory"
	"github.com/ChangJoo-Park/json-api/internal/docstore/redisstore"
	"github.com/ChangJoo-Park/json-api/internal/docstore/sqlstore"
	"github.com/ChangJoo-Park/json-api/internal/query"
)

const testModels = `
models:
  - name: Person
    fields:
      - path: name
        type: String
        required: true
  - name: Organization
    fields:
      - path: name
        type: String
        required: true
      - path: liaisons
        array: true
        ref: Person
  - name: School
    extends: Organization
`

// setupProject writes a schema file and a config pointing at it into a
// temporary working directory.
func setupProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "models.yaml"), []byte(testModels), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jsonapi.yaml"), []byte("store:\n  schema_file: models.yaml\n"), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "jsonapi", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"version", "serve", "docs"}, names)
}

func TestVersionCommand(t *testing.T) {
	Version = "1.2.3"
	defer func() { Version = "dev" }()

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3")
}

func TestDocsCommand(t *testing.T) {
	setupProject(t)

	t.Run("list types", func(t *testing.T) {
		out, err := execute(t, "docs", "--no-color")
		require.NoError(t, err)
		assert.Contains(t, out, "people")
		assert.Contains(t, out, "organizations")
		assert.Contains(t, out, "schools")
	})

	t.Run("describe type", func(t *testing.T) {
		out, err := execute(t, "docs", "organizations", "--no-color")
		require.NoError(t, err)
		assert.Contains(t, out, "→ [people]")
		assert.Contains(t, out, "Types stored in this collection\n  organizations\n  schools")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "docs", "organizations", "--json")
		require.NoError(t, err)

		var docs struct {
			Type          string   `json:"type"`
			AllowedTypes  []string `json:"allowedTypes"`
			Relationships []string `json:"relationships"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &docs))
		assert.Equal(t, "organizations", docs.Type)
		assert.Equal(t, []string{"organizations", "schools"}, docs.AllowedTypes)
		assert.Equal(t, []string{"liaisons"}, docs.Relationships)
	})

	t.Run("unknown type suggests", func(t *testing.T) {
		_, err := execute(t, "docs", "peple", "--no-color")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "did you mean: people?")
	})

	t.Run("missing schema file", func(t *testing.T) {
		_, err := execute(t, "docs", "--schema", "nope.yaml")
		assert.Error(t, err)
	})
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		b, closeFn, err := openBackend(ctx, config.StoreConfig{Backend: config.BackendMemory})
		require.NoError(t, err)
		assert.IsType(t, &memory.Backend{}, b)
		assert.NoError(t, closeFn())
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		b, closeFn, err := openBackend(ctx, config.StoreConfig{
			Backend: config.BackendRedis,
			Redis:   config.RedisConfig{Addr: mr.Addr(), Prefix: "test:"},
		})
		require.NoError(t, err)
		assert.IsType(t, &redisstore.Backend{}, b)
		assert.NoError(t, closeFn())
	})

	t.Run("sqlite", func(t *testing.T) {
		b, closeFn, err := openBackend(ctx, config.StoreConfig{
			Backend: config.BackendSQLite,
			DSN:     filepath.Join(t.TempDir(), "docs.db"),
		})
		require.NoError(t, err)
		assert.IsType(t, &sqlstore.Backend{}, b)
		assert.NoError(t, closeFn())
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := openBackend(ctx, config.StoreConfig{Backend: "mongo"})
		assert.Error(t, err)
	})
}

func TestBootstrap(t *testing.T) {
	setupProject(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	app, err := bootstrap(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer app.close()

	assert.Equal(t, []string{"people", "organizations", "schools"}, app.adapter.Registry().Types())

	result, err := app.adapter.DoQuery(context.Background(), query.NewFind(query.FindParams{Type: "people"}))
	require.NoError(t, err)
	assert.True(t, result.Primary.IsEmpty())
}
