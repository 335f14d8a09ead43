package variables

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"notetoolbar/adapters"
	"notetoolbar/frontmatter"
	"notetoolbar/models"
)

var tokenPattern = regexp.MustCompile(`{{(.*?)}}`)

// Prefixes
const (
	propPrefix   = "prop_"
	encodePrefix = "encode:"
)

// scriptPrefixes maps inline expression prefixes to their engines
var scriptPrefixes = map[string]models.ItemType{
	"dv:": models.ItemDataview,
	"js:": models.ItemJsEngine,
	"tp:": models.ItemTemplater,
}

// HasVariables reports whether s contains a {{...}} token
func HasVariables(s string) bool {
	return tokenPattern.MatchString(s)
}

// Resolver expands variables against a note. It is safe for concurrent use.
type Resolver struct {
	// VaultPath is substituted for {{vault_path}}
	VaultPath string
	// Selection returns the current editor selection
	Selection func() string
	// Scripts evaluates dv:, js: and tp: expressions; nil disables them
	Scripts *adapters.Registry
}

func (r *Resolver) HasVariables(s string) bool {
	return HasVariables(s)
}

// Resolve replaces each token in s. Unknown names and failed expressions
// leave the raw token in place.
func (r *Resolver) Resolve(ctx context.Context, s string, file *models.File) (string, error) {
	if !HasVariables(s) {
		return s, nil
	}
	out := tokenPattern.ReplaceAllStringFunc(s, func(token string) string {
		if ctx.Err() != nil {
			return token
		}
		name := strings.TrimSpace(token[2 : len(token)-2])

		encode := false
		if strings.HasPrefix(name, encodePrefix) {
			encode = true
			name = strings.TrimSpace(strings.TrimPrefix(name, encodePrefix))
		}

		val, ok := r.lookup(ctx, name, file)
		if !ok {
			return token
		}
		if encode {
			val = url.QueryEscape(val)
		}
		return val
	})
	return out, ctx.Err()
}

func (r *Resolver) lookup(ctx context.Context, name string, file *models.File) (string, bool) {
	for prefix, engine := range scriptPrefixes {
		if strings.HasPrefix(name, prefix) {
			return r.evaluate(ctx, engine, strings.TrimSpace(strings.TrimPrefix(name, prefix)))
		}
	}

	if strings.HasPrefix(name, propPrefix) {
		if file == nil {
			return "", true
		}
		v, ok := file.Frontmatter[strings.TrimPrefix(name, propPrefix)]
		if !ok {
			return "", true
		}
		return frontmatter.Stringify(v), true
	}

	switch name {
	case "file_name":
		if file == nil {
			return "", true
		}
		return file.Basename(), true
	case "file_path":
		if file == nil {
			return "", true
		}
		return file.Path, true
	case "note_title":
		if file == nil {
			return "", true
		}
		if title, ok := file.Frontmatter["title"].(string); ok && title != "" {
			return title, true
		}
		return file.Basename(), true
	case "vault_path":
		return r.VaultPath, true
	case "selection":
		if r.Selection == nil {
			return "", true
		}
		return r.Selection(), true
	}
	return "", false
}

// evaluate runs an inline expression in Ignore mode: on failure the raw
// token stays visible rather than interrupting the render
func (r *Resolver) evaluate(ctx context.Context, engine models.ItemType, expr string) (string, bool) {
	if r.Scripts == nil {
		return "", false
	}
	out, err := r.Scripts.Evaluate(ctx, engine, models.ScriptConfig{Expression: expr}, adapters.Ignore)
	if err != nil {
		return "", false
	}
	return out, true
}
