package output

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/cliwizard/cliwizard/pkg/config"
)

type row struct {
	Group   string   `json:"group"`
	Command string   `json:"command"`
	Tags    []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	note    string
}

func render(t *testing.T, data any, style Style) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, data, style); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return buf.String()
}

func TestStyleOf(t *testing.T) {
	cfg := &config.Config{OutputFormat: "table", OutputColors: false, JsonIndent: 4, TableStyle: "markdown"}
	got := StyleOf(cfg)
	want := Style{Format: "table", Colors: false, JSONIndent: 4, TableStyle: "markdown"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StyleOf() = %+v, want %+v", got, want)
	}
	if !reflect.DeepEqual(StyleOf(nil), DefaultStyle()) {
		t.Error("StyleOf(nil) should be the default style")
	}
	if got := DefaultStyle().WithFormat("YAML").Format; got != FormatYAML {
		t.Errorf("WithFormat() = %q", got)
	}
	if got := DefaultStyle().WithFormat("").Format; got != FormatJSON {
		t.Errorf("empty WithFormat() should keep json, got %q", got)
	}
}

func TestWrite_JSONIndent(t *testing.T) {
	data := map[string]any{"name": "petctl", "groups": 2}

	style := DefaultStyle()
	if got := render(t, data, style); !strings.Contains(got, "\n  \"groups\": 2") {
		t.Errorf("expected two-space indent, got %q", got)
	}

	style.JSONIndent = 4
	if got := render(t, data, style); !strings.Contains(got, "\n    \"groups\": 2") {
		t.Errorf("expected four-space indent, got %q", got)
	}

	style.JSONIndent = 0
	if got := render(t, data, style); got != "{\"groups\":2,\"name\":\"petctl\"}\n" {
		t.Errorf("unexpected compact output %q", got)
	}
}

func TestWrite_YAML(t *testing.T) {
	style := DefaultStyle().WithFormat(FormatYAML)

	if got := render(t, []row{{Group: "pets", Command: "ls"}}, style); got != "- group: pets\n  command: ls\n" {
		t.Errorf("unexpected YAML %q", got)
	}
	if got := render(t, nil, style); got != "null\n" {
		t.Errorf("expected null, got %q", got)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, 1, DefaultStyle().WithFormat("xml"))
	if err == nil || !strings.Contains(err.Error(), "supported: json, table, yaml") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}

func TestTableRows(t *testing.T) {
	data := []row{
		{Group: "pets", Command: "list-pets", Tags: []string{"pets", "public"}},
		{Group: "store", Command: "get-inventory"},
	}

	rows, err := tableRows(data, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"GROUP", "COMMAND", "TAGS"},
		{"pets", "list-pets", "pets, public"},
		{"store", "get-inventory", ""},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("got %v, want %v", rows, want)
	}

	rows, _ = tableRows(data, []Column{{Field: "command", Header: "NAME", Width: 8}})
	want = [][]string{{"NAME"}, {"list-..."}, {"get-i..."}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("got %v, want %v", rows, want)
	}

	rows, _ = tableRows(map[string]int{"b": 2, "a": 1}, nil)
	if !reflect.DeepEqual(rows, [][]string{{"KEY", "VALUE"}, {"a", "1"}, {"b", "2"}}) {
		t.Errorf("unexpected map rows %v", rows)
	}

	rows, _ = tableRows(&row{Group: "pets", Command: "ls"}, nil)
	if !reflect.DeepEqual(rows, [][]string{{"FIELD", "VALUE"}, {"group", "pets"}, {"command", "ls"}, {"tags", ""}}) {
		t.Errorf("unexpected struct rows %v", rows)
	}
}

func TestTableRows_Errors(t *testing.T) {
	for _, data := range []any{nil, "text", []row{}, (*row)(nil)} {
		if _, err := tableRows(data, nil); err == nil {
			t.Errorf("expected error for %#v", data)
		}
	}
}

func TestWrite_TableStyles(t *testing.T) {
	data := []row{{Group: "pets", Command: "ls"}, {Group: "store", Command: "a|b"}}
	style := DefaultStyle().WithFormat(FormatTable)
	style.Colors = false

	style.TableStyle = TableMarkdown
	want := "| GROUP | COMMAND | TAGS |\n| --- | --- | --- |\n| pets | ls |  |\n| store | a\\|b |  |\n"
	if got := render(t, data, style); got != want {
		t.Errorf("markdown table =\n%s\nwant\n%s", got, want)
	}

	for _, ts := range []string{TableASCII, TableRounded, TableMinimal} {
		style.TableStyle = ts
		got := render(t, data, style)
		for _, s := range []string{"GROUP", "pets", "store"} {
			if !strings.Contains(got, s) {
				t.Errorf("%s table missing %q:\n%s", ts, s, got)
			}
		}
	}
}

func TestWrite_JSONRoundTrip(t *testing.T) {
	out := render(t, row{Group: "pets", Command: "ls", note: "hidden"}, DefaultStyle())
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := decoded["note"]; ok {
		t.Error("unexported field should not be encoded")
	}
}

func TestWrite_FixedColumns(t *testing.T) {
	style := DefaultStyle().WithFormat(FormatTable).WithColumns(Column{Field: "Command", Header: "CMD"})
	style.TableStyle = TableMarkdown

	got := render(t, []row{{Group: "pets", Command: "ls"}}, style)
	if got != "| CMD |\n| --- |\n| ls |\n" {
		t.Errorf("unexpected table %q", got)
	}
}
