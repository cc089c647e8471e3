package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// fieldIndexCache caches JSON tag -> struct field index mappings per payload type
var fieldIndexCache sync.Map

func fieldIndex(t reflect.Type) map[string]int {
	if cached, ok := fieldIndexCache.Load(t); ok {
		return cached.(map[string]int)
	}
	m := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		m[strings.Split(tag, ",")[0]] = i
	}
	fieldIndexCache.Store(t, m)
	return m
}

// flexUnmarshal decodes a JSON object into dst, a pointer to a struct whose
// type has no UnmarshalJSON of its own (callers pass an alias type).
//
// Payloads come from a browser extension whose schema changed over time:
// numbers arrive as strings, ids arrive as numbers, and nested objects are
// sometimes replaced by scalars. Instead of rejecting the whole document, a
// field that cannot be decoded is left at its zero value (nil for pointers).
// Only data that is not a JSON object at all returns an error.
func flexUnmarshal(data []byte, dst any) error {
	// Fast path: standard unmarshal works when every field matches natively
	if err := json.Unmarshal(data, dst); err == nil {
		return nil
	}

	v := reflect.ValueOf(dst).Elem()
	v.Set(reflect.Zero(v.Type()))

	// Slow path: field-by-field with coercion
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex unmarshal: %w", err)
	}

	fields := fieldIndex(v.Type())
	for key, rawVal := range raw {
		idx, ok := fields[key]
		if !ok {
			continue
		}

		fv := v.Field(idx)
		if !fv.CanSet() {
			continue
		}

		ptr := reflect.New(fv.Type())
		if err := json.Unmarshal(rawVal, ptr.Interface()); err == nil {
			fv.Set(ptr.Elem())
			continue
		}

		if s, ok := scalarText(rawVal); ok {
			coerceStringToField(fv, s)
		}
	}

	return nil
}

// scalarText returns the textual form of a JSON string, number or bool.
func scalarText(raw json.RawMessage) (string, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "", false
	}
	switch c := trimmed[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	case c == '-' || (c >= '0' && c <= '9') || trimmed == "true" || trimmed == "false":
		return trimmed, true
	}
	return "", false
}

// coerceStringToField converts a string value to the field's native type.
// It reports whether the field was set.
func coerceStringToField(fv reflect.Value, s string) bool {
	switch fv.Kind() {
	case reflect.Pointer:
		elem := reflect.New(fv.Type().Elem())
		if coerceStringToField(elem.Elem(), s) {
			fv.Set(elem)
			return true
		}
	case reflect.Float32, reflect.Float64:
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			fv.SetFloat(n)
			return true
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// ParseFloat handles "2500.0" → truncate to int
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			fv.SetInt(int64(n))
			return true
		}
	case reflect.Bool:
		if b, err := strconv.ParseBool(s); err == nil {
			fv.SetBool(b)
			return true
		}
	case reflect.String:
		fv.SetString(s)
		return true
	}
	return false
}
