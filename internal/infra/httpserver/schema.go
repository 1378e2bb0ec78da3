package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
)

// scanEventCreateSchema describes the POST /api/v1/events body. Unknown
// properties are ignored and no value ranges are enforced. The numeric fields
// also take strings; decodeCreateBody coerces them.
const scanEventCreateSchema = `{
  "type": "object",
  "required": ["timestamp", "project_name", "file_path", "secret_type", "confidence", "line_number"],
  "properties": {
    "timestamp":    {"type": "string"},
    "project_name": {"type": "string"},
    "file_path":    {"type": "string"},
    "secret_type":  {"type": "string"},
    "confidence":   {"type": ["number", "string"]},
    "line_number":  {"type": ["number", "string"]},
    "preview":      {"type": ["string", "null"]}
  }
}`

var createSchema = mustCompile("scan_event_create.json", scanEventCreateSchema)

func mustCompile(name, src string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(src), &doc); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return c.MustCompile(name)
}

// validateBody checks a decoded JSON document against the create schema and
// reports every failing field.
func validateBody(doc any) *ValidationError {
	err := createSchema.Validate(doc)
	if err == nil {
		return nil
	}
	ve := &ValidationError{}
	var sve *jsonschema.ValidationError
	if !errors.As(err, &sve) {
		ve.add(err.Error(), "value_error", "body")
		return ve
	}
	collectSchemaErrors(ve, sve)
	if ve.empty() {
		ve.add("invalid request body", "value_error", "body")
	}
	return ve
}

func collectSchemaErrors(ve *ValidationError, e *jsonschema.ValidationError) {
	if len(e.Causes) > 0 {
		for _, c := range e.Causes {
			collectSchemaErrors(ve, c)
		}
		return
	}

	loc := []any{"body"}
	for _, p := range e.InstanceLocation {
		loc = append(loc, p)
	}

	switch k := e.ErrorKind.(type) {
	case *kind.Required:
		for _, name := range k.Missing {
			ve.add("field required", "value_error.missing", append(append([]any{}, loc...), name)...)
		}
	case *kind.Type:
		want := strings.Join(k.Want, "_")
		if n := len(e.InstanceLocation); n > 0 {
			if t, ok := numericFields[e.InstanceLocation[n-1]]; ok {
				want = t
			}
		}
		ve.add("value is not a valid "+want, "type_error."+want, loc...)
	default:
		ve.add("invalid value", "value_error", loc...)
	}
}

// numericFields names the coerced type of each numeric body field.
var numericFields = map[string]string{
	"confidence":  "float",
	"line_number": "integer",
}

// decodeCreateBody builds the create request from a document that already
// passed the schema. Numbers may arrive as JSON numbers or numeric strings;
// line_number must be integral ("12", 12 and 12.0 are fine, 12.5 is not).
func decodeCreateBody(doc map[string]any) (ScanEventCreate, *ValidationError) {
	body := ScanEventCreate{
		Timestamp:   doc["timestamp"].(string),
		ProjectName: doc["project_name"].(string),
		FilePath:    doc["file_path"].(string),
		SecretType:  doc["secret_type"].(string),
	}
	if p, ok := doc["preview"].(string); ok {
		body.Preview = &p
	}

	ve := &ValidationError{}
	if f, ok := coerceFloat(doc["confidence"]); ok {
		body.Confidence = f
	} else {
		ve.add("value is not a valid float", "type_error.float", "body", "confidence")
	}
	if n, ok := coerceInt(doc["line_number"]); ok {
		body.LineNumber = n
	} else {
		ve.add("value is not a valid integer", "type_error.integer", "body", "line_number")
	}
	if !ve.empty() {
		return ScanEventCreate{}, ve
	}
	return body, nil
}

func coerceFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(n), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// coerceInt keeps line numbers within the 32-bit INTEGER column.
func coerceInt(v any) (int, bool) {
	if s, ok := v.(string); ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32); err == nil {
			return int(n), true
		}
	}
	f, ok := coerceFloat(v)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
