package output

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// tableRows converts data to a header row followed by body rows.
func tableRows(data any, columns []Column) ([][]string, error) {
	v := indirect(reflect.ValueOf(data))
	if !v.IsValid() {
		return nil, fmt.Errorf("cannot render nil as a table")
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return nil, fmt.Errorf("cannot render an empty list as a table")
		}
		return sliceRows(v, columns), nil
	case reflect.Map:
		return mapRows(v), nil
	case reflect.Struct:
		return structRows(v), nil
	}
	return nil, fmt.Errorf("cannot render %s as a table", v.Kind())
}

func sliceRows(v reflect.Value, columns []Column) [][]string {
	if len(columns) == 0 {
		columns = columnsOf(indirect(v.Index(0)))
	}

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Header
		if header[i] == "" {
			header[i] = strings.ToUpper(col.Field)
		}
	}
	rows := [][]string{header}

	for i := 0; i < v.Len(); i++ {
		elem := indirect(v.Index(i))
		row := make([]string, len(columns))
		for j, col := range columns {
			cell := cellText(lookup(elem, col.Field))
			if col.Width > 3 && len(cell) > col.Width {
				cell = cell[:col.Width-3] + "..."
			}
			row[j] = cell
		}
		rows = append(rows, row)
	}
	return rows
}

func mapRows(v reflect.Value) [][]string {
	keys := make([]string, 0, v.Len())
	values := make(map[string]any, v.Len())
	for _, k := range v.MapKeys() {
		key := fmt.Sprint(k.Interface())
		keys = append(keys, key)
		values[key] = v.MapIndex(k).Interface()
	}
	sort.Strings(keys)

	rows := [][]string{{"KEY", "VALUE"}}
	for _, key := range keys {
		rows = append(rows, []string{key, cellText(values[key])})
	}
	return rows
}

func structRows(v reflect.Value) [][]string {
	rows := [][]string{{"FIELD", "VALUE"}}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.IsExported() {
			rows = append(rows, []string{jsonName(f), cellText(v.Field(i).Interface())})
		}
	}
	return rows
}

// columnsOf derives columns from the exported fields of a struct, or the
// sorted keys of a map. Any other element is a single VALUE column.
func columnsOf(v reflect.Value) []Column {
	switch v.Kind() {
	case reflect.Struct:
		var columns []Column
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); f.IsExported() {
				columns = append(columns, Column{Field: jsonName(f)})
			}
		}
		return columns
	case reflect.Map:
		var keys []string
		for _, k := range v.MapKeys() {
			keys = append(keys, fmt.Sprint(k.Interface()))
		}
		sort.Strings(keys)
		columns := make([]Column, len(keys))
		for i, k := range keys {
			columns[i] = Column{Field: k}
		}
		return columns
	}
	return []Column{{Header: "VALUE"}}
}

// lookup returns the struct field (by Go name or json tag) or map entry
// named field; an empty field is v itself.
func lookup(v reflect.Value, field string) any {
	if !v.IsValid() {
		return nil
	}
	if field == "" {
		return v.Interface()
	}
	switch v.Kind() {
	case reflect.Map:
		for _, k := range v.MapKeys() {
			if fmt.Sprint(k.Interface()) == field {
				return v.MapIndex(k).Interface()
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); f.IsExported() && (f.Name == field || jsonName(f) == field) {
				return v.Field(i).Interface()
			}
		}
	}
	return nil
}

func jsonName(f reflect.StructField) string {
	if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}
	return f.Name
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func cellText(value any) string {
	v := indirect(reflect.ValueOf(value))
	if !v.IsValid() {
		return ""
	}
	switch val := v.Interface().(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	default:
		return fmt.Sprint(val)
	}
}
