package engine

import (
	"fmt"
	"strings"
	"sync"

	"notetoolbar/resolver"
)

// missingWarner raises the "no matching toolbar" notice once per note and
// property value, until the value changes
type missingWarner struct {
	mu     sync.Mutex
	warned map[string]string // file path -> missing values last warned about
	notice func(string)
}

func newMissingWarner(notice func(string)) *missingWarner {
	return &missingWarner{warned: map[string]string{}, notice: notice}
}

func (w *missingWarner) check(path string, res resolver.Resolution) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(res.Missing) == 0 {
		delete(w.warned, path)
		return
	}
	key := strings.Join(res.Missing, "\x00")
	if w.warned[path] == key {
		return
	}
	w.warned[path] = key
	if w.notice != nil {
		w.notice(fmt.Sprintf("No toolbar matches %q (in %s)", strings.Join(res.Missing, ", "), path))
	}
}

// rename carries warning state over to a renamed note
func (w *missingWarner) rename(oldPath, newPath string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if v, ok := w.warned[oldPath]; ok {
		w.warned[newPath] = v
		delete(w.warned, oldPath)
	}
}
