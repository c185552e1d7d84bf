package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Format is the textual encoding of a stored definition.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// normalizeMarker is injected by workflow parsers and must never be persisted.
const normalizeMarker = "normalize"

var (
	resourcePattern = regexp.MustCompile(`\.sw\.(json|yaml|yml)$`)
	validate        = validator.New(validator.WithRequiredStructEnabled())
)

// FormatFromResourceID infers the format from a `.sw.{json|yaml|yml}` suffix.
func FormatFromResourceID(id string) (Format, error) {
	match := resourcePattern.FindStringSubmatch(id)
	if match == nil {
		return "", fmt.Errorf("%w for uri %s", ErrUnsupportedFormat, id)
	}

	switch match[1] {
	case "yml", "yaml":
		return FormatYAML, nil
	default:
		return FormatJSON, nil
	}
}

// IsResourceID reports whether id carries a workflow resource suffix.
func IsResourceID(id string) bool {
	return resourcePattern.MatchString(id)
}

// ResourceName returns the canonical file name of a definition.
func ResourceName(id string, format Format) string {
	return id + ".sw." + string(format)
}

// Serialize renders a definition in the given format.
func Serialize(def *Definition, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(def, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal workflow %s: %w", def.ID, err)
		}

		return data, nil
	case FormatYAML:
		var buf bytes.Buffer

		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)

		if err := encoder.Encode(def); err != nil {
			return nil, fmt.Errorf("failed to marshal workflow %s: %w", def.ID, err)
		}

		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal workflow %s: %w", def.ID, err)
		}

		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w %s", ErrUnsupportedFormat, format)
	}
}

// Deserialize parses a JSON or YAML definition and drops parser markers.
func Deserialize(source []byte) (*Definition, error) {
	var raw any

	trimmed := bytes.TrimSpace(source)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty source", ErrParseFailure)
	}

	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailure, err)
		}
	} else if err := yaml.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailure, err)
	}

	document, ok := removeProperty(raw, normalizeMarker).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document is not an object", ErrParseFailure)
	}

	// Round-trip through JSON so both formats yield identical value types.
	data, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailure, err)
	}

	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailure, err)
	}

	if err := validate.Struct(def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailure, err)
	}

	return &def, nil
}

func removeProperty(value any, property string) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))

		for key, item := range v {
			if key == property {
				continue
			}

			out[key] = removeProperty(item, property)
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = removeProperty(item, property)
		}

		return out
	default:
		return value
	}
}
