package builder

import (
	"testing"

	"github.com/cliwizard/cliwizard/pkg/openapi"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOptions_BodyCollisionIsPrefixed(t *testing.T) {
	o := &openapi.Operation{
		ID:     "updateUser",
		Method: "PATCH",
		Path:   "/users/{userId}",
		Parameters: []openapi.Parameter{
			{Name: "userId", In: openapi.InPath, Type: "string", Required: true},
			{Name: "dryRun", In: openapi.InQuery, Type: "boolean"},
		},
		RequestBody: &openapi.RequestBody{
			ContentType: "application/json",
			Properties: []openapi.BodyProperty{
				{Name: "dry_run", Type: "boolean"},
				{Name: "name", Type: "string", Required: true},
				{Name: "userId", Type: "string"},
			},
		},
	}

	args := buildArguments(o)
	opts := buildOptions(o, args)

	require.Len(t, args, 1)
	assert.Equal(t, "user-id", args[0].Name)

	var names, vars []string
	for _, opt := range opts {
		names = append(names, opt.Name)
		vars = append(vars, opt.VarName)
	}
	assert.Equal(t, []string{"dry-run", "body-dry-run", "name", "body-user-id"}, names)
	assert.Equal(t, []string{"dry_run", "body_dry_run", "name", "body_user_id"}, vars)
	assert.Equal(t, "dry_run", opts[1].Param)
	assert.Equal(t, SourceBody, opts[1].Source)
	assert.True(t, opts[2].Required)
}

func TestBuildOptions_ParameterCollisionIsPrefixed(t *testing.T) {
	o := &openapi.Operation{
		ID:     "getItem",
		Method: "GET",
		Path:   "/items/{id}",
		Parameters: []openapi.Parameter{
			{Name: "id", In: openapi.InPath, Type: "string", Required: true},
			{Name: "id", In: openapi.InQuery, Type: "string"},
			{Name: "X-Trace-Id", In: openapi.InHeader, Type: "string"},
			{Name: "x_trace_id", In: openapi.InQuery, Type: "string"},
		},
		RequestBody: &openapi.RequestBody{
			ContentType: "application/json",
			Properties: []openapi.BodyProperty{
				{Name: "id", Type: "string"},
				{Name: "query-id", Type: "string"},
			},
		},
	}

	args := buildArguments(o)
	opts := buildOptions(o, args)

	require.Len(t, args, 1)
	require.Len(t, opts, 5)

	var names []string
	for _, opt := range opts {
		names = append(names, opt.Name)
	}
	assert.Equal(t, []string{"query-id", "x-trace-id", "query-x-trace-id", "body-id", "body-query-id"}, names)
	assert.Equal(t, "query_id", opts[0].VarName)
	assert.Equal(t, "id", opts[0].Param)
	assert.Equal(t, SourceQuery, opts[0].Source)
	assert.Equal(t, "x_trace_id", opts[2].Param)

	cmd := &cobra.Command{Use: "get-item"}
	for _, opt := range opts {
		require.NoError(t, addFlag(cmd, opt))
	}
}

func TestClaim_NumericSuffix(t *testing.T) {
	taken := map[string]bool{"id": true, "query-id": true}

	name, varName := claim(taken, "id", "query")
	assert.Equal(t, "query-id-2", name)
	assert.Equal(t, "query_id_2", varName)
	assert.True(t, taken["query-id-2"])
}

func TestAddFlag_Types(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}

	require.NoError(t, addFlag(cmd, Option{Name: "limit", Type: "integer", Default: float64(20), Source: SourceQuery, Param: "limit"}))
	require.NoError(t, addFlag(cmd, Option{Name: "ratio", Type: "number", Source: SourceQuery, Param: "ratio"}))
	require.NoError(t, addFlag(cmd, Option{Name: "verbose", Type: "boolean", Default: true, Source: SourceQuery, Param: "verbose"}))
	require.NoError(t, addFlag(cmd, Option{Name: "ids", Type: "array", Source: SourceQuery, Param: "ids"}))
	require.NoError(t, addFlag(cmd, Option{Name: "name", Type: "string", Default: "bob", Source: SourceBody, Param: "name"}))

	tests := []struct {
		name     string
		typ      string
		defValue string
	}{
		{"limit", "int", "20"},
		{"ratio", "float64", "0"},
		{"verbose", "bool", "true"},
		{"ids", "stringArray", "[]"},
		{"name", "string", "bob"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.typ, flag.Value.Type())
			assert.Equal(t, tt.defValue, flag.DefValue)
		})
	}
}

func TestAddFlag_Annotations(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}

	require.NoError(t, addFlag(cmd, Option{
		Name: "role", Type: "string", Enum: []any{"admin", "member"},
		Source: SourceBody, Param: "role",
	}))
	require.NoError(t, addFlag(cmd, Option{
		Name: "password", Type: "string", Format: "password", Required: true,
		Source: SourceBody, Param: "password",
	}))
	require.NoError(t, addFlag(cmd, Option{
		Name: "old", Type: "string", Deprecated: true,
		Source: SourceQuery, Param: "old",
	}))

	role := cmd.Flags().Lookup("role")
	assert.Equal(t, []string{"admin", "member"}, role.Annotations["enum"])
	assert.Equal(t, []string{"body", "role"}, role.Annotations["source"])

	password := cmd.Flags().Lookup("password")
	assert.Equal(t, []string{"true"}, password.Annotations["sensitive"])
	assert.Equal(t, []string{"true"}, password.Annotations[cobra.BashCompOneRequiredFlag])

	assert.NotEmpty(t, cmd.Flags().Lookup("old").Deprecated)
}

func TestAddFlag_Duplicate(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	require.NoError(t, addFlag(cmd, Option{Name: "name", Type: "string"}))

	err := addFlag(cmd, Option{Name: "name", Type: "string"})
	assert.ErrorContains(t, err, "defined twice")
}

func TestRequestValues(t *testing.T) {
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	require.NoError(t, addFlag(cmd, Option{Name: "limit", Type: "integer", Source: SourceQuery, Param: "limit"}))
	require.NoError(t, addFlag(cmd, Option{Name: "x-trace", Type: "string", Source: SourceHeader, Param: "X-Trace"}))
	require.NoError(t, addFlag(cmd, Option{Name: "name", Type: "string", Source: SourceBody, Param: "name"}))
	require.NoError(t, addFlag(cmd, Option{Name: "unused", Type: "string", Default: "d", Source: SourceBody, Param: "unused"}))

	require.NoError(t, cmd.ParseFlags([]string{"--limit", "5", "--x-trace", "abc", "--name", "bob"}))

	assert.Equal(t, map[Source]map[string]any{
		SourceQuery:  {"limit": 5},
		SourceHeader: {"X-Trace": "abc"},
		SourceBody:   {"name": "bob"},
	}, RequestValues(cmd))
}

func TestValidateEnumFlags(t *testing.T) {
	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{Use: "test"}
		require.NoError(t, addFlag(cmd, Option{Name: "role", Type: "string", Enum: []any{"admin", "member"}}))
		return cmd
	}

	ok := newCmd()
	require.NoError(t, ok.ParseFlags([]string{"--role", "member"}))
	assert.NoError(t, ValidateEnumFlags(ok))

	bad := newCmd()
	require.NoError(t, bad.ParseFlags([]string{"--role", "boss"}))
	err := ValidateEnumFlags(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--role")
	assert.Contains(t, err.Error(), "admin, member")

	unset := newCmd()
	assert.NoError(t, ValidateEnumFlags(unset))
}
