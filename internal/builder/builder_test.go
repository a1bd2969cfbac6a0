package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/cliwizard/cliwizard/pkg/config"
	"github.com/cliwizard/cliwizard/pkg/openapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func op(id string, tags ...string) *openapi.Operation {
	return &openapi.Operation{ID: id, Method: "GET", Path: "/" + id, Tags: tags}
}

func catalogOf(ops ...*openapi.Operation) *openapi.Catalog {
	return &openapi.Catalog{Title: "Test", Version: "1", Operations: ops}
}

func groupNames(tree *Tree) []string {
	names := make([]string, len(tree.Groups))
	for i, g := range tree.Groups {
		names[i] = g.Name
	}
	return names
}

func commandNames(g *Group) []string {
	names := make([]string, len(g.Commands))
	for i, c := range g.Commands {
		names[i] = c.Name
	}
	return names
}

func discard() BuilderOption {
	return WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func TestCompile_ExcludeTags(t *testing.T) {
	tree, err := Compile(catalogOf(op("payInvoice", "billing", "admin")),
		config.APIConfig{ExcludeTags: []string{"admin"}}, discard())
	require.NoError(t, err)

	assert.Equal(t, []string{"billing"}, groupNames(tree))
	assert.Equal(t, []string{"pay-invoice"}, commandNames(tree.Groups[0]))
}

func TestCompile_IncludeTags(t *testing.T) {
	tree, err := Compile(catalogOf(op("payInvoice", "billing", "admin")),
		config.APIConfig{IncludeTags: []string{"billing"}}, discard())
	require.NoError(t, err)

	assert.Equal(t, []string{"billing"}, groupNames(tree))
	assert.Equal(t, 1, tree.CommandCount())
}

func TestCompile_MultiTagReplication(t *testing.T) {
	tree, err := Compile(catalogOf(op("payInvoice", "billing", "admin")), config.APIConfig{}, discard())
	require.NoError(t, err)

	assert.Equal(t, []string{"billing", "admin"}, groupNames(tree))
	for _, g := range tree.Groups {
		assert.Equal(t, []string{"pay-invoice"}, commandNames(g))
	}
}

func TestCompile_ExcludeTakesPrecedence(t *testing.T) {
	tree, err := Compile(catalogOf(op("payInvoice", "billing"), op("listUsers", "users")),
		config.APIConfig{ExcludeTags: []string{"billing"}, IncludeTags: []string{"billing", "users"}}, discard())
	require.NoError(t, err)

	assert.Equal(t, []string{"users"}, groupNames(tree))
}

func TestCompile_FilteredOutEntirely(t *testing.T) {
	tree, err := Compile(catalogOf(op("internalSync", "internal")),
		config.APIConfig{ExcludeTags: []string{"internal"}}, discard())
	require.NoError(t, err)

	assert.True(t, tree.Empty())
	assert.Empty(t, tree.Warnings)
}

func TestCompile_NamingConflict(t *testing.T) {
	api := config.APIConfig{CommandMapping: map[string]string{
		"syncUsers":  "sync",
		"syncOrders": "sync",
	}}

	_, err := Compile(catalogOf(op("syncUsers", "jobs"), op("syncOrders", "jobs")), api, discard())

	var conflict *NamingConflict
	require.True(t, errors.As(err, &conflict), "expected NamingConflict, got %v", err)
	assert.Equal(t, "jobs", conflict.Group)
	assert.Equal(t, "sync", conflict.Command)
	assert.Equal(t, []string{"syncUsers", "syncOrders"}, conflict.Operations)
	assert.Equal(t, KindNamingConflict, conflict.Kind())

	tree, err := Compile(catalogOf(op("syncUsers", "users"), op("syncOrders", "orders")), api, discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "orders"}, groupNames(tree))
}

func TestCompile_DerivedNameConflict(t *testing.T) {
	_, err := Compile(catalogOf(op("listUsers", "users"), op("list_users", "users")), config.APIConfig{}, discard())

	var conflict *NamingConflict
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "list-users", conflict.Command)
}

func TestCompile_TagMappingMergesGroups(t *testing.T) {
	api := config.APIConfig{TagMapping: map[string]string{
		"Users":  "accounts",
		"Admins": "accounts",
	}}

	tree, err := Compile(catalogOf(
		op("listUsers", "Users"),
		op("promote", "Users", "Admins"),
		op("listAdmins", "Admins"),
	), api, discard())
	require.NoError(t, err)

	require.Len(t, tree.Groups, 1)
	g := tree.Groups[0]
	assert.Equal(t, "accounts", g.Name)
	assert.Equal(t, []string{"Users", "Admins"}, g.Tags)
	assert.Equal(t, []string{"list-users", "promote", "list-admins"}, commandNames(g))
}

func TestCompile_Naming(t *testing.T) {
	api := config.APIConfig{
		TagMapping:     map[string]string{"API Keys": "keys"},
		CommandMapping: map[string]string{"listUsers": "ls"},
	}

	tree, err := Compile(catalogOf(
		op("listUsers", "User Management"),
		op("GetUserByID", "User Management"),
		op("rotateKey", "API Keys"),
	), api, discard())
	require.NoError(t, err)

	assert.Equal(t, []string{"user-management", "keys"}, groupNames(tree))
	assert.Equal(t, "user_management", tree.Groups[0].ModuleName)
	assert.Equal(t, []string{"ls", "get-user-by-id"}, commandNames(tree.Groups[0]))
	assert.Equal(t, "get_user_by_id", tree.Groups[0].Commands[1].FuncName)
	assert.Equal(t, "list_users", tree.Groups[0].Commands[0].FuncName)
}

func TestCompile_Ordering(t *testing.T) {
	tree, err := Compile(catalogOf(
		op("a1", "alpha"),
		op("z1", "zeta", "alpha"),
		op("m1", "mid"),
		op("a2", "alpha"),
		op("z2", "zeta"),
	), config.APIConfig{}, discard())
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "zeta", "mid"}, groupNames(tree))
	alpha, _ := tree.Group("alpha")
	assert.Equal(t, []string{"a1", "z1", "a2"}, commandNames(alpha))
	zeta, _ := tree.Group("zeta")
	assert.Equal(t, []string{"z1", "z2"}, commandNames(zeta))
}

func TestCompile_EveryIncludedOperationPlaced(t *testing.T) {
	catalog := catalogOf(
		op("a", "x"), op("b", "y", "x"), op("c", "z"), op("d", "y"),
	)
	tree, err := Compile(catalog, config.APIConfig{ExcludeTags: []string{"z"}}, discard())
	require.NoError(t, err)

	placed := map[string]bool{}
	for _, g := range tree.Groups {
		for _, c := range g.Commands {
			placed[c.OperationID] = true
		}
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true, "d": true}, placed)
}

func TestCompile_UnknownReferencesWarn(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	api := config.APIConfig{
		ExcludeTags:    []string{"legacy"},
		IncludeTags:    []string{"users", "ghosts"},
		TagMapping:     map[string]string{"vanished": "v", "users": "people"},
		CommandMapping: map[string]string{"removedOp": "gone"},
	}

	tree, err := Compile(catalogOf(op("listUsers", "users")), api, WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, []string{"people"}, groupNames(tree))
	require.Len(t, tree.Warnings, 4)
	assert.Equal(t, &UnknownTagReference{Setting: "ExcludeTags", Reference: "legacy"}, tree.Warnings[0])
	assert.Equal(t, &UnknownTagReference{Setting: "IncludeTags", Reference: "ghosts"}, tree.Warnings[1])
	assert.Equal(t, &UnknownTagReference{Setting: "TagMapping", Reference: "vanished"}, tree.Warnings[2])
	assert.Equal(t, &UnknownTagReference{Setting: "CommandMapping", Reference: "removedOp"}, tree.Warnings[3])
	assert.Equal(t, KindUnknownTagReference, tree.Warnings[0].Kind())
	assert.Contains(t, tree.Warnings[3].Error(), "unknown operation")

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "reference=ghosts")
}

func TestCompile_Deterministic(t *testing.T) {
	catalog, err := openapi.NewParser().ParseFile(context.Background(), "../../pkg/openapi/testdata/store.yaml")
	require.NoError(t, err)
	api := config.APIConfig{TagMapping: map[string]string{"Users": "users"}}

	first, err := Compile(catalog, api, discard())
	require.NoError(t, err)
	second, err := Compile(catalog, api, discard())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestCompile_StoreCatalog(t *testing.T) {
	catalog, err := openapi.NewParser().ParseFile(context.Background(), "../../pkg/openapi/testdata/store.yaml")
	require.NoError(t, err)

	tree, err := Compile(catalog, config.APIConfig{ExcludeTags: []string{"admin"}}, discard())
	require.NoError(t, err)

	assert.Equal(t, []string{"users", "billing", "default"}, groupNames(tree))
	users, _ := tree.Group("users")
	assert.Equal(t, []string{"create-user", "list-users", "get-users-user-id", "delete-user"}, commandNames(users))
	assert.Equal(t, "User management", users.Description)

	get, _ := users.Command("get-users-user-id")
	require.Len(t, get.Arguments, 1)
	assert.Equal(t, Argument{Name: "user-id", VarName: "user_id", Param: "userId", Type: "string"}, get.Arguments[0])
	assert.Empty(t, get.Options)

	list, _ := users.Command("list-users")
	require.Len(t, list.Options, 2)
	assert.Equal(t, "limit", list.Options[0].Name)
	assert.Equal(t, SourceQuery, list.Options[0].Source)
	assert.Equal(t, "x-request-id", list.Options[1].Name)
	assert.Equal(t, "x_request_id", list.Options[1].VarName)
	assert.Equal(t, SourceHeader, list.Options[1].Source)

	create, _ := users.Command("create-user")
	assert.Equal(t, "application/json", create.BodyContentType)
	var names []string
	for _, o := range create.Options {
		assert.Equal(t, SourceBody, o.Source)
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"email", "password", "role"}, names)

	del, _ := users.Command("delete-user")
	assert.True(t, del.Deprecated)
}

func TestCompile_CLIExtensions(t *testing.T) {
	named := op("listPets", "pets")
	named.CLI = openapi.CLIExtensions{Command: "ls", Aliases: []string{"list"}}
	mapped := op("createPet", "pets")
	mapped.CLI = openapi.CLIExtensions{Command: "add", Hidden: true}
	plain := op("showPetById", "pets")

	tree, err := Compile(catalogOf(named, mapped, plain),
		config.APIConfig{CommandMapping: map[string]string{"createPet": "new"}}, discard())
	require.NoError(t, err)

	pets, ok := tree.Group("pets")
	require.True(t, ok)
	assert.Equal(t, []string{"ls", "new", "show-pet-by-id"}, commandNames(pets))
	assert.Equal(t, []string{"list"}, pets.Commands[0].Aliases)
	assert.True(t, pets.Commands[1].Hidden)
	assert.False(t, pets.Commands[2].Hidden)
}

func TestCompile_ExtensionNameConflict(t *testing.T) {
	a := op("listPets", "pets")
	b := op("searchPets", "pets")
	b.CLI.Command = "list-pets"

	_, err := Compile(catalogOf(a, b), config.APIConfig{}, discard())
	var conflict *NamingConflict
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "list-pets", conflict.Command)
}
