package generate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cliwizard/cliwizard/internal/builder"
	"github.com/cliwizard/cliwizard/pkg/config"
	"github.com/cliwizard/cliwizard/pkg/openapi"
	"github.com/cliwizard/cliwizard/pkg/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEnv = resolve.Environment{"HOME": "/home/u"}

func groupNames(tree *builder.Tree) []string {
	var names []string
	for _, g := range tree.Groups {
		names = append(names, g.Name)
	}
	return names
}

func TestPipeline_Run(t *testing.T) {
	p := NewPipeline(nil, nil)

	ctx, err := p.Run(context.Background(), Inputs{
		ConfigPath: "testdata/cliwizard.yaml",
		Env:        testEnv,
	})
	require.NoError(t, err)

	cfg := ctx.Config
	assert.Equal(t, "petctl", cfg.PackageName)
	assert.Equal(t, "https://pets.example.com", cfg.DefaultBaseUrl)
	assert.Equal(t, "Command line client for petctl", cfg.Description)
	assert.Equal(t, "petctl", cfg.CommandName)
	assert.Equal(t, "/home/u/.petctl", cfg.MainDir)
	assert.Equal(t, "/home/u/.petctl/profiles.yaml", cfg.ProfileFile)

	assert.Equal(t, []string{"animals", "store"}, groupNames(ctx.Tree))
	animals, _ := ctx.Tree.Group("animals")
	assert.Equal(t, "Everything about pets", animals.Description)
	var names []string
	for _, c := range animals.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"ls", "create-pet", "show-pet-by-id"}, names)
	assert.Equal(t, Stats{Groups: 2, Commands: 4, Operations: 4}, ctx.Stats)
	assert.Empty(t, ctx.Warnings)
}

func TestPipeline_EnvironmentOverridesDefault(t *testing.T) {
	ctx, err := NewPipeline(nil, nil).Run(context.Background(), Inputs{
		ConfigPath: "testdata/cliwizard.yaml",
		Env:        resolve.Environment{"HOME": "/home/u", "PET_API_URL": "https://staging.example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com", ctx.Config.DefaultBaseUrl)
}

func TestPipeline_Deterministic(t *testing.T) {
	run := func() []byte {
		ctx, err := NewPipeline(nil, nil).Run(context.Background(), Inputs{
			ConfigPath: "testdata/cliwizard.yaml",
			Env:        testEnv,
		})
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, ctx.Encode(&buf, FormatJSON))
		return buf.Bytes()
	}

	first := run()
	for i := 0; i < 5; i++ {
		assert.Equal(t, string(first), string(run()))
	}
}

func TestPipeline_NullSpec(t *testing.T) {
	ctx, err := NewPipeline(nil, nil).Run(context.Background(), Inputs{
		Config: []byte("PackageName: petctl\nDefaultBaseUrl: https://pets.example.com\nOpenapiSpec: null\n"),
		Env:    testEnv,
	})
	require.NoError(t, err)

	assert.Nil(t, ctx.Config.OpenapiSpec)
	assert.True(t, ctx.Tree.Empty())
	assert.Equal(t, Stats{}, ctx.Stats)
}

func TestPipeline_SpecOverride(t *testing.T) {
	ctx, err := NewPipeline(nil, nil).Run(context.Background(), Inputs{
		Config:  []byte("PackageName: petctl\nDefaultBaseUrl: https://pets.example.com\nOpenapiSpec: null\n"),
		BaseDir: "testdata",
		Env:     testEnv,
		Spec:    "petstore.yaml",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"pets", "store"}, groupNames(ctx.Tree))
}

func TestPipeline_Errors(t *testing.T) {
	base := "PackageName: petctl\nDefaultBaseUrl: https://pets.example.com\n"

	tests := []struct {
		name   string
		config string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "cyclic reference",
			config: "PackageName: '#[CommandName]'\nCommandName: '#[PackageName]'\nDefaultBaseUrl: https://x.example.com\n",
			check: func(t *testing.T, err error) {
				var cyc *resolve.CyclicReference
				require.ErrorAs(t, err, &cyc)
				assert.ElementsMatch(t, []string{"PackageName", "CommandName"}, cyc.Keys())
			},
		},
		{
			name:   "unresolved reference",
			config: base + "Description: 'see #[Ghost]'\n",
			check: func(t *testing.T, err error) {
				var unresolved *resolve.UnresolvedReference
				require.ErrorAs(t, err, &unresolved)
				assert.Equal(t, "Ghost", unresolved.Name)
			},
		},
		{
			name:   "schema violations",
			config: base + "Timeout: soon\nColour: red\n",
			check: func(t *testing.T, err error) {
				var violations config.ValidationErrors
				require.ErrorAs(t, err, &violations)
				assert.Equal(t, []string{"Timeout", "Colour"}, violations.Keys())
			},
		},
		{
			name:   "unsupported version",
			config: base + "OpenapiSpec: swagger.json\n",
			check: func(t *testing.T, err error) {
				var unsupported *openapi.UnsupportedVersion
				require.ErrorAs(t, err, &unsupported)
				assert.Equal(t, "2.0", unsupported.Version)
			},
		},
		{
			name:   "naming conflict",
			config: base + "OpenapiSpec: petstore.yaml\nCommandMapping:\n  listPets: sync\n  createPet: sync\n",
			check: func(t *testing.T, err error) {
				var conflict *builder.NamingConflict
				require.ErrorAs(t, err, &conflict)
				assert.Equal(t, "pets", conflict.Group)
			},
		},
		{
			name:   "empty command tree",
			config: base + "OpenapiSpec: petstore.yaml\nIncludeTags: [orders]\n",
			check: func(t *testing.T, err error) {
				var empty *EmptyCommandTree
				require.ErrorAs(t, err, &empty)
				assert.Equal(t, []string{"orders"}, empty.IncludeTags)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := NewPipeline(nil, nil).Run(context.Background(), Inputs{
				Config:  []byte(tt.config),
				BaseDir: "testdata",
				Env:     testEnv,
			})
			assert.Nil(t, ctx)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestPipeline_ConfigKeepsResolvedOnViolation(t *testing.T) {
	_, resolved, err := NewPipeline(nil, nil).Config(Inputs{
		Config: []byte("PackageName: petctl\nDefaultBaseUrl: https://pets.example.com\nTimeout: soon\n"),
		Env:    testEnv,
	})
	require.Error(t, err)
	require.NotNil(t, resolved)
	v, _ := resolved.Config.Get("Timeout")
	assert.Equal(t, "soon", v)
}

func TestPipeline_MissingConfig(t *testing.T) {
	_, err := NewPipeline(nil, nil).Run(context.Background(), Inputs{Env: testEnv})
	assert.ErrorContains(t, err, "no configuration")

	_, err = NewPipeline(nil, nil).Run(context.Background(), Inputs{ConfigPath: "testdata/missing.yaml"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPipeline_Discover(t *testing.T) {
	dir := t.TempDir()
	spec, err := os.ReadFile("testdata/petstore.yaml")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "api"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api", "openapi.yaml"), spec, 0644))

	in := Inputs{
		Config:  []byte("PackageName: petctl\nDefaultBaseUrl: https://pets.example.com\n"),
		BaseDir: dir,
		Env:     testEnv,
	}

	_, err = NewPipeline(nil, nil).Run(context.Background(), in)
	require.Error(t, err, "openapi.json does not exist")

	p := NewPipeline(nil, nil)
	p.Discover = true
	ctx, err := p.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 4, ctx.Stats.Operations)
}

func TestDiscoverSpec(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"b/openapi.json", "a/deep/openapi.yaml", "c/openapi.yml", "other.yaml"} {
		full := filepath.Join(dir, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte("{}"), 0644))
	}

	found, err := DiscoverSpec(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b", "openapi.json"), found)

	_, err = DiscoverSpec(t.TempDir())
	assert.Error(t, err)
}

func TestPipeline_WatchFilesWithBrokenSpec(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cliwizard.yaml")
	specPath := filepath.Join(dir, "openapi.yaml")
	require.NoError(t, os.WriteFile(cfgPath,
		[]byte("PackageName: petctl\nDefaultBaseUrl: https://pets.example.com\nOpenapiSpec: openapi.yaml\n"), 0644))
	require.NoError(t, os.WriteFile(specPath, []byte("openapi: [broken"), 0644))

	p := NewPipeline(nil, nil)
	in := Inputs{ConfigPath: cfgPath, Env: testEnv}

	_, err := p.Run(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, []string{cfgPath, specPath}, p.WatchFiles(in))
}

func TestPipeline_WatchFilesWithInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cliwizard.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("PackageName: petctl\n"), 0644))

	in := Inputs{ConfigPath: cfgPath, Env: testEnv}
	assert.Equal(t, []string{cfgPath}, NewPipeline(nil, nil).WatchFiles(in))

	in.Spec = "https://pets.example.com/openapi.json"
	require.NoError(t, os.WriteFile(cfgPath,
		[]byte("PackageName: petctl\nDefaultBaseUrl: https://pets.example.com\n"), 0644))
	assert.Equal(t, []string{cfgPath}, NewPipeline(nil, nil).WatchFiles(in), "remote specs are not watched")
}
