package ai

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// GenerateSchema creates a JSON Schema from the given Go type, suitable for
// structured-output enforcement on transports that support it.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	v := reflect.New(t).Interface()
	return reflector.Reflect(v)
}

// ExtractJSONObject returns the first top-level {...} span of s, located by
// scanning from the first opening to the last closing brace. It reports false
// when no such span exists. This is the lenient second stage of response
// parsing, kept separate so it can be tested on its own.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}
	end := strings.LastIndexByte(s, '}')
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// UnmarshalFlexible parses model-generated JSON into out with a cascade of
// fallback strategies: strict parsing, unwrapping double-encoded strings,
// extracting the first {...} span from surrounding prose, and finally
// repairing malformed JSON. It returns a *MalformedResponseError when every
// stage fails.
//
// All of these inputs parse successfully:
//
//	UnmarshalFlexible(`{"name": "test"}`, &v)            // strict
//	UnmarshalFlexible(`"{\"name\": \"test\"}"`, &v)      // double-encoded
//	UnmarshalFlexible("Here it is: {\"name\":\"x\"}", &v) // wrapped in prose
//	UnmarshalFlexible(`{name: "test"}`, &v)              // repaired
func UnmarshalFlexible(input string, out any) error {
	raw := input
	input = strings.TrimSpace(input)

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	var asString string
	if err := json.Unmarshal([]byte(input), &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if err := json.Unmarshal([]byte(asString), out); err == nil {
			return nil
		}
		input = asString
	}

	if !strings.HasPrefix(input, "{") {
		if span, ok := ExtractJSONObject(input); ok {
			if err := json.Unmarshal([]byte(span), out); err == nil {
				return nil
			}
			input = span
		}
	}

	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return &MalformedResponseError{Raw: raw, Err: fmt.Errorf("json repair failed: %w", err)}
	}

	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return &MalformedResponseError{Raw: raw, Err: fmt.Errorf("unmarshal failed after repair: %w", err)}
	}

	return nil
}
