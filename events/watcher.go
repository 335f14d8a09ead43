package events

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"notetoolbar/frontmatter"
	"notetoolbar/models"

	"github.com/fsnotify/fsnotify"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// renameWindow is how long a Rename waits for its paired Create
const renameWindow = 100 * time.Millisecond

// Vault is the in-memory vault the watcher keeps in sync with disk
type Vault interface {
	AddFile(path string, fm map[string]any) *models.File
	AddFolder(path string)
	RenameFile(oldPath, newPath string)
	RemoveFile(path string)
}

// Watcher feeds changes to notes on disk into a bridge. fsnotify reports a
// move as Rename of the old name followed by Create of the new one; the two
// are paired into a single rename.
type Watcher struct {
	root   string
	vault  Vault
	bridge *Bridge
	fs     *fsnotify.Watcher

	// renamed is the vault path of the last Rename awaiting its Create
	renamed   string
	renamedAt time.Time
}

func NewWatcher(root string, vault Vault, bridge *Bridge) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, serr.Wrap(err, "failed to create file watcher")
	}
	w := &Watcher{root: root, vault: vault, bridge: bridge, fs: fsw}
	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// fsnotify is not recursive, so every folder gets its own watch
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			return serr.Wrap(err, "failed to watch folder "+p)
		}
		return nil
	})
}

// Run handles events until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.LogErr(err, "file watcher error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	rel, ok := w.vaultPath(ev.Name)
	if !ok {
		return
	}

	switch {
	case ev.Has(fsnotify.Create):
		if w.renamed != "" && time.Since(w.renamedAt) < renameWindow {
			oldPath := w.renamed
			w.renamed = ""
			w.vault.RenameFile(oldPath, rel)
			if err := w.bridge.Rename(oldPath, rel); err != nil {
				logger.LogErr(err, "rename propagation failed", "from", oldPath, "to", rel)
			}
			return
		}
		w.dropRenamed()
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.vault.AddFolder(rel)
			if err := w.addTree(ev.Name); err != nil {
				logger.LogErr(err, "failed to watch new folder", "path", rel)
			}
			return
		}
		if isNote(rel) {
			w.reload(ev.Name, rel)
		}
	case ev.Has(fsnotify.Write):
		if isNote(rel) {
			w.reload(ev.Name, rel)
		}
	case ev.Has(fsnotify.Rename):
		w.dropRenamed()
		w.renamed = rel
		w.renamedAt = time.Now()
	case ev.Has(fsnotify.Remove):
		w.vault.RemoveFile(rel)
	}
}

// dropRenamed forgets a Rename that never got its Create: the note moved
// out of the vault
func (w *Watcher) dropRenamed() {
	if w.renamed == "" {
		return
	}
	w.vault.RemoveFile(w.renamed)
	w.renamed = ""
}

// reload re-reads a note's properties and reports the change
func (w *Watcher) reload(abs, rel string) {
	fm, err := frontmatter.ReadFile(abs)
	if err != nil {
		logger.LogErr(err, "failed to read note", "path", rel)
		return
	}
	f := w.vault.AddFile(rel, fm)
	w.bridge.MetadataChanged(f)
}

func (w *Watcher) vaultPath(abs string) (string, bool) {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return "", false
		}
	}
	return rel, true
}

func isNote(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), ".md")
}
