package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// field describes one leaf of Config as seen through its dotted json key.
type field struct {
	Key      string
	Kind     reflect.Kind
	Secret   bool
	Validate string
}

// schema is every settable key, derived once from Config's struct tags.
var schema = buildSchema(reflect.TypeOf(Config{}))

func buildSchema(t reflect.Type) map[string]field {
	out := make(map[string]field)
	walkFields("", t, out)
	return out
}

func walkFields(prefix string, t reflect.Type, out map[string]field) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if sf.Type.Kind() == reflect.Struct {
			walkFields(key, sf.Type, out)
			continue
		}
		out[key] = field{
			Key:      key,
			Kind:     sf.Type.Kind(),
			Secret:   sf.Tag.Get("secret") == "true",
			Validate: sf.Tag.Get("validate"),
		}
	}
}

func lookupKey(key string) (field, bool) {
	f, ok := schema[key]
	return f, ok
}

// Keys returns every config key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsSecretKey reports whether key holds a credential.
func IsSecretKey(key string) bool {
	return schema[key].Secret
}

// coerce parses raw into the JSON value stored for f.
func (f field) coerce(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case reflect.String:
		return raw, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected true or false, got %q", raw)
		}
		return b, nil
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", raw)
		}
		return float64(n), nil
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", raw)
		}
		return n, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw, nil
	}
	return v, nil
}

// Flatten turns nested maps into one map keyed by dotted paths, so
// {"session": {"idle_ttl": "24h"}} becomes {"session.idle_ttl": "24h"}.
// Empty nested maps leave no keys.
func Flatten(m map[string]any) map[string]any {
	out := make(map[string]any)
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			if prefix != "" {
				k = prefix + "." + k
			}
			if child, ok := v.(map[string]any); ok {
				walk(k, child)
				continue
			}
			out[k] = v
		}
	}
	walk("", m)
	return out
}

// Unflatten is the inverse of Flatten. A scalar sitting where a path needs
// a map is replaced by the map.
func Unflatten(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range flat {
		setPath(out, strings.Split(k, "."), v)
	}
	return out
}

func setPath(m map[string]any, parts []string, v any) {
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

// MaskSecrets copies flat with every non-empty secret string replaced by
// "***" and its last four characters.
func MaskSecrets(flat map[string]any) map[string]any {
	out := make(map[string]any, len(flat))
	for k, v := range flat {
		if s, ok := v.(string); ok && s != "" && IsSecretKey(k) {
			v = mask(s)
		}
		out[k] = v
	}
	return out
}

func mask(s string) string {
	if len(s) <= 4 {
		return "***" + s
	}
	return "***" + s[len(s)-4:]
}
