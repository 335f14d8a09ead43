package resolver

import (
	"strings"

	"notetoolbar/frontmatter"
	"notetoolbar/models"

	"github.com/rohanthewiz/logger"
)

// NoneValue in the toolbar property suppresses every toolbar for the note
const NoneValue = "none"

// Source is the read side of the config store the resolver needs
type Source interface {
	Toolbar(uuid string) (*models.Toolbar, bool)
	ToolbarByName(name string) (*models.Toolbar, bool)
	FolderMappings() []models.FolderMapping
	ToolbarProp() string
}

// MatchKind says which rule selected the toolbar
type MatchKind string

const (
	MatchNone       MatchKind = ""
	MatchSuppressed MatchKind = "suppressed"
	MatchProperty   MatchKind = "property"
	MatchFolder     MatchKind = "folder"
)

// Resolution explains how a toolbar was (or wasn't) chosen
type Resolution struct {
	Toolbar *models.Toolbar
	Kind    MatchKind
	// Values are the property candidates read from frontmatter
	Values []string
	// Missing holds property values that named no toolbar
	Missing []string
	// Mapping is the folder rule that matched, for MatchFolder
	Mapping *models.FolderMapping
	// Skipped lists folder rules that matched the path but point at
	// deleted toolbars
	Skipped []models.FolderMapping
}

// Resolver selects the single toolbar that applies to a note
type Resolver struct {
	src Source
}

func New(src Source) *Resolver {
	return &Resolver{src: src}
}

// Resolve returns the toolbar for a note, or nil when none applies
func (r *Resolver) Resolve(fm map[string]any, filePath string) *models.Toolbar {
	return r.Explain(fm, filePath).Toolbar
}

// Explain runs resolution and reports the rule that decided it.
// Order: the toolbar property (where "none" wins outright), then folder
// mappings in declared order.
func (r *Resolver) Explain(fm map[string]any, filePath string) Resolution {
	res := Resolution{}

	if values, ok := frontmatter.Values(fm, r.src.ToolbarProp()); ok {
		res.Values = values
		for _, v := range values {
			if v == NoneValue {
				res.Kind = MatchSuppressed
				return res
			}
		}
		for _, v := range values {
			if tb, ok := r.src.ToolbarByName(strings.TrimSpace(v)); ok {
				res.Toolbar = tb
				res.Kind = MatchProperty
				return res
			}
		}
		res.Missing = values
	}

	path := NormalizePath(filePath)
	for _, m := range r.src.FolderMappings() {
		if !FolderMatches(m.Folder, path) {
			continue
		}
		tb, ok := r.src.Toolbar(m.ToolbarUUID)
		if !ok {
			logger.Debug("Skipping folder mapping to deleted toolbar", "folder", m.Folder, "toolbar", m.ToolbarUUID)
			res.Skipped = append(res.Skipped, m)
			continue
		}
		mapping := m
		res.Toolbar = tb
		res.Kind = MatchFolder
		res.Mapping = &mapping
		return res
	}
	return res
}

// NormalizePath prepares a note path for folder matching.
// The vault root is the literal "/"; everything else is lower-cased.
func NormalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	return strings.ToLower(p)
}

// FolderMatches reports whether a folder rule covers the normalized path.
// "*" matches everything and "/" matches only notes at the vault root.
// Any other rule matches notes inside that folder or below it; the prefix
// must end at a path separator, so "projects" does not cover
// "projects overview.md".
func FolderMatches(folder, normalizedPath string) bool {
	switch folder {
	case "":
		return false
	case "*":
		return true
	case "/":
		return normalizedPath == "/" || !strings.Contains(strings.TrimPrefix(normalizedPath, "/"), "/")
	}
	prefix := strings.Trim(strings.ToLower(folder), "/")
	if prefix == "" {
		return false
	}
	p := strings.TrimPrefix(normalizedPath, "/")
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
