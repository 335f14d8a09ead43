package frontmatter

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rohanthewiz/serr"
	"gopkg.in/yaml.v3"
)

var frontmatterPattern = regexp.MustCompile(`(?s)^---\n(.*?)\n---(?:\n(.*))?$`)

// Parse extracts the YAML properties block at the top of a note.
// Notes without one return a nil map and the whole content as body.
func Parse(content string) (map[string]any, string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	matches := frontmatterPattern.FindStringSubmatch(content)
	if len(matches) != 3 {
		return nil, content, nil
	}

	props := map[string]any{}
	if err := yaml.Unmarshal([]byte(matches[1]), &props); err != nil {
		return nil, content, serr.Wrap(err, "failed to parse frontmatter")
	}
	return props, matches[2], nil
}

// ReadFile parses the frontmatter of the note at path
func ReadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, serr.Wrap(err, "failed to read note")
	}
	props, _, err := Parse(string(data))
	return props, err
}

// Values reads a property as a list of strings.
// A single scalar becomes a one-element list; a missing key returns nil.
func Values(props map[string]any, key string) ([]string, bool) {
	raw, ok := props[key]
	if !ok {
		return nil, false
	}
	switch v := raw.(type) {
	case nil:
		return []string{}, true
	case string:
		return []string{v}, true
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if e == nil {
				continue
			}
			out = append(out, Stringify(e))
		}
		return out, true
	case []string:
		return v, true
	}
	return []string{Stringify(raw)}, true
}

// Stringify renders a scalar property value as text; lists are joined
// with ", "
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, Stringify(e))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}
