package builder

import (
	"bytes"
	"context"
	"testing"

	"github.com/cliwizard/cliwizard/pkg/config"
	"github.com/cliwizard/cliwizard/pkg/openapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPreview(t *testing.T, args ...string) (string, error) {
	t.Helper()

	catalog, err := openapi.NewParser().ParseFile(context.Background(), "../../pkg/openapi/testdata/store.yaml")
	require.NoError(t, err)
	tree, err := Compile(catalog, config.APIConfig{}, discard())
	require.NoError(t, err)

	root, err := Preview(tree, "store", "Store API")
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), err
}

func TestPreview_Structure(t *testing.T) {
	catalog, err := openapi.NewParser().ParseFile(context.Background(), "../../pkg/openapi/testdata/store.yaml")
	require.NoError(t, err)
	tree, err := Compile(catalog, config.APIConfig{}, discard())
	require.NoError(t, err)

	root, err := Preview(tree, "store", "Store API")
	require.NoError(t, err)

	var groups []string
	for _, c := range root.Commands() {
		groups = append(groups, c.Name())
	}
	assert.ElementsMatch(t, []string{"users", "admin", "billing", "default"}, groups)

	get := GetCommandByOperationID(root, "get_users_userId")
	require.NotNil(t, get)
	assert.Equal(t, "get-users-user-id <user-id>", get.Use)
	assert.Equal(t, "GET", get.Annotations["method"])
	assert.Equal(t, "/users/{userId}", get.Annotations["path"])

	billing, _, err := root.Find([]string{"billing"})
	require.NoError(t, err)
	assert.Equal(t, "Invoices and payments", billing.Short)

	admin, _, err := root.Find([]string{"admin"})
	require.NoError(t, err)
	assert.Equal(t, "admin operations", admin.Short)

	del := GetCommandByOperationID(root, "deleteUser")
	require.NotNil(t, del)
	assert.NotEmpty(t, del.Deprecated)

	assert.Nil(t, GetCommandByOperationID(root, "missing"))
}

func TestPreview_Execute(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "path argument",
			args: []string{"users", "get-users-user-id", "u 1"},
			want: "GET /users/u%201\n",
		},
		{
			name: "query and header",
			args: []string{"users", "list-users", "--limit", "5", "--x-request-id", "abc"},
			want: "GET /users?limit=5\nheader X-Request-Id: abc\n",
		},
		{
			name: "body",
			args: []string{"users", "create-user", "--email", "a@b.c", "--password", "pw", "--role", "admin"},
			want: "POST /users\nbody (application/json): {\"email\":\"a@b.c\",\"password\":\"pw\",\"role\":\"admin\"}\n",
		},
		{
			name: "replicated command",
			args: []string{"admin", "pay-invoice", "42"},
			want: "POST /invoices/42/pay\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runPreview(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestPreview_Errors(t *testing.T) {
	_, err := runPreview(t, "users", "create-user", "--email", "a@b.c", "--password", "pw", "--role", "boss")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in allowed values")

	_, err = runPreview(t, "users", "create-user", "--email", "a@b.c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"password"`)

	_, err = runPreview(t, "users", "get-users-user-id")
	require.Error(t, err)
}

func TestDescribeRequest_Cookie(t *testing.T) {
	c := &Command{Method: "GET", Path: "/session"}
	var buf bytes.Buffer

	err := DescribeRequest(&buf, c, nil, map[Source]map[string]any{
		SourceCookie: {"sid": "abc"},
		SourceQuery:  {"tag": []string{"a", "b"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "GET /session?tag=a&tag=b\ncookie sid: abc\n", buf.String())
}

func TestPreview_AliasesAndHidden(t *testing.T) {
	list := &openapi.Operation{ID: "listPets", Method: "GET", Path: "/pets", Tags: []string{"pets"},
		CLI: openapi.CLIExtensions{Command: "ls", Aliases: []string{"list"}}}
	purge := &openapi.Operation{ID: "purgePets", Method: "DELETE", Path: "/pets", Tags: []string{"pets"},
		CLI: openapi.CLIExtensions{Hidden: true}}

	tree, err := Compile(&openapi.Catalog{Operations: []*openapi.Operation{list, purge}}, config.APIConfig{}, discard())
	require.NoError(t, err)
	root, err := Preview(tree, "petctl", "")
	require.NoError(t, err)

	cmd, _, err := root.Find([]string{"pets", "list"})
	require.NoError(t, err)
	assert.Equal(t, "ls", cmd.Name())

	hidden := GetCommandByOperationID(root, "purgePets")
	require.NotNil(t, hidden)
	assert.True(t, hidden.Hidden)
}
