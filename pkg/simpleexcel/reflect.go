package simpleexcel

import (
	"reflect"
	"sort"
)

func sliceValue(data interface{}) reflect.Value {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v
}

func dataLength(data interface{}) int {
	v := sliceValue(data)
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		return v.Len()
	}
	return 0
}

// extractValue reads a struct field (promoted fields included) or map key.
// Nil pointers render as empty cells.
func extractValue(item reflect.Value, fieldName string) interface{} {
	for item.Kind() == reflect.Ptr || item.Kind() == reflect.Interface {
		if item.IsNil() {
			return ""
		}
		item = item.Elem()
	}
	var f reflect.Value
	switch item.Kind() {
	case reflect.Struct:
		f = item.FieldByName(fieldName)
	case reflect.Map:
		f = item.MapIndex(reflect.ValueOf(fieldName))
	}
	if !f.IsValid() {
		return ""
	}
	for f.Kind() == reflect.Ptr || f.Kind() == reflect.Interface {
		if f.IsNil() {
			return ""
		}
		f = f.Elem()
	}
	return f.Interface()
}

// mergeColumns keeps the configured columns and appends fields detected in the data.
func mergeColumns(data interface{}, configured []ColumnConfig) []ColumnConfig {
	seen := make(map[string]bool, len(configured))
	cols := make([]ColumnConfig, 0, len(configured))
	for _, col := range configured {
		seen[col.FieldName] = true
		cols = append(cols, col)
	}
	for _, field := range detectFields(data) {
		if !seen[field] {
			seen[field] = true
			cols = append(cols, ColumnConfig{FieldName: field, Header: field, Width: defaultColumnWidth})
		}
	}
	return cols
}

// detectFields lists exported struct fields in declaration order, or the sorted union of
// map keys over the first 50 rows.
func detectFields(data interface{}) []string {
	v := sliceValue(data)
	if v.Kind() != reflect.Slice || v.Len() == 0 {
		return nil
	}
	elem := v.Index(0)
	for elem.Kind() == reflect.Ptr || elem.Kind() == reflect.Interface {
		elem = elem.Elem()
	}

	switch elem.Kind() {
	case reflect.Struct:
		var fields []string
		t := elem.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).PkgPath == "" && !t.Field(i).Anonymous {
				fields = append(fields, t.Field(i).Name)
			}
		}
		return fields
	case reflect.Map:
		limit := v.Len()
		if limit > 50 {
			limit = 50
		}
		set := make(map[string]bool)
		for i := 0; i < limit; i++ {
			row := v.Index(i)
			for row.Kind() == reflect.Ptr || row.Kind() == reflect.Interface {
				row = row.Elem()
			}
			if row.Kind() != reflect.Map {
				continue
			}
			for _, k := range row.MapKeys() {
				set[k.String()] = true
			}
		}
		keys := make([]string, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	}
	return nil
}
