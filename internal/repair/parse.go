package repair

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Value is the result of Parse: a JSON object, a JSON array, or an empty object.
type Value struct {
	obj map[string]any
	arr []any
}

// Object returns the parsed object. It is never nil; an array input yields
// an empty map.
func (v Value) Object() map[string]any {
	if v.obj == nil {
		return map[string]any{}
	}
	return v.obj
}

// Array returns the parsed array, or nil when the input was an object.
func (v Value) Array() []any {
	return v.arr
}

// IsArray reports whether the input parsed to a JSON array.
func (v Value) IsArray() bool {
	return v.arr != nil
}

// Empty reports whether nothing usable was recovered.
func (v Value) Empty() bool {
	return len(v.obj) == 0 && len(v.arr) == 0
}

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\s*\\n?(.*?)```")

// Parse recovers a JSON value from arbitrary text. Fences are stripped, a
// direct parse is attempted, then the widest bracketed substring of either
// shape is tried. Anything else yields an empty object.
func Parse(text string) (v Value) {
	defer func() {
		if recover() != nil {
			v = Value{obj: map[string]any{}}
		}
	}()

	s := stripFences(text)
	if out, ok := decode(s); ok {
		return out
	}

	objStart, arrStart := strings.IndexByte(s, '{'), strings.IndexByte(s, '[')
	tryObj := func() (Value, bool) { return between(s, objStart, '}') }
	tryArr := func() (Value, bool) { return between(s, arrStart, ']') }
	first, second := tryObj, tryArr
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		first, second = tryArr, tryObj
	}
	if out, ok := first(); ok {
		return out
	}
	if out, ok := second(); ok {
		return out
	}
	return Value{obj: map[string]any{}}
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	// Unterminated fence.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
	}
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

func between(s string, start int, closer byte) (Value, bool) {
	if start < 0 {
		return Value{}, false
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return Value{}, false
	}
	return decode(s[start : end+1])
}

func decode(s string) (Value, bool) {
	if s == "" {
		return Value{}, false
	}
	var raw any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return Value{}, false
	}
	switch t := raw.(type) {
	case map[string]any:
		return Value{obj: t}, true
	case []any:
		return Value{arr: t}, true
	}
	return Value{}, false
}
