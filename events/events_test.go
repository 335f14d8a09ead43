package events

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"notetoolbar/engine"
	"notetoolbar/host"
	"notetoolbar/host/memhost"
	"notetoolbar/models"

	"github.com/fsnotify/fsnotify"
)

type fakeEngine struct {
	mu         sync.Mutex
	reconciles []string
	rebuilds   int
	renamed    [][2]string
	forgotten  []string
}

func (f *fakeEngine) Reconcile(_ context.Context, view host.View, trigger engine.Trigger) (engine.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconciles = append(f.reconciles, view.ID()+":"+string(trigger))
	return engine.OutcomePatched, nil
}

func (f *fakeEngine) ReconcileAll(_ context.Context, trigger engine.Trigger) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconciles = append(f.reconciles, "*:"+string(trigger))
}

func (f *fakeEngine) RebuildAll(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebuilds++
}

func (f *fakeEngine) NoteRenamed(oldPath, newPath string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renamed = append(f.renamed, [2]string{oldPath, newPath})
}

func (f *fakeEngine) Forget(viewID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, viewID)
}

func (f *fakeEngine) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reconciles...)
}

func newBridge(t *testing.T, wait time.Duration) (*Bridge, *fakeEngine, *models.ConfigStore, *memhost.Host) {
	t.Helper()
	store := models.NewConfigStore(models.NewSettings(), models.NewMemoryStore(nil))
	h := memhost.New(models.PlatformDesktop)
	eng := &fakeEngine{}
	b := NewBridge(context.Background(), eng, store, h, wait)
	t.Cleanup(b.Close)
	return b, eng, store, h
}

// waitFor polls until cond holds or a second passes
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestDebouncerCoalesces(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		d.Trigger("a.md", func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	d.Trigger("b.md", func() {
		mu.Lock()
		got = append(got, 100)
		mu.Unlock()
	})

	waitFor(t, func() bool { return d.Pending() == 0 })
	time.Sleep(40 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("calls = %v, want one per key", got)
	}
	seen := map[int]bool{got[0]: true, got[1]: true}
	if !seen[4] || !seen[100] {
		t.Errorf("calls = %v, want last function per key", got)
	}
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	called := make(chan struct{}, 1)
	d.Trigger("a", func() { called <- struct{}{} })
	d.Stop()
	d.Trigger("a", func() { called <- struct{}{} })

	select {
	case <-called:
		t.Error("stopped debouncer fired")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMetadataChangesAreDebounced(t *testing.T) {
	b, eng, _, h := newBridge(t, 20*time.Millisecond)
	f := h.AddFile("notes/a.md", nil)
	h.AddFile("notes/b.md", nil)
	h.OpenView("v1", "notes/a.md", models.ViewModeSource)
	h.OpenView("v2", "notes/b.md", models.ViewModeSource)

	for i := 0; i < 5; i++ {
		b.MetadataChanged(f)
	}
	waitFor(t, func() bool { return len(eng.calls()) > 0 })
	time.Sleep(40 * time.Millisecond)

	calls := eng.calls()
	if len(calls) != 1 || calls[0] != "v1:"+string(engine.TriggerMetadata) {
		t.Errorf("reconciles = %v, want a single pass on v1", calls)
	}
}

func TestRenamePropagation(t *testing.T) {
	b, eng, store, h := newBridge(t, 0)
	tb, _ := store.AddToolbar("Links")
	items := []models.ToolbarItem{
		{UUID: "file", Type: models.ItemFile, Link: "notes/a.md"},
		{UUID: "prefix", Type: models.ItemFile, Link: "notes/a.md.bak"},
		{UUID: "cmd", Type: models.ItemCommand, Link: "notes/a.md"},
		{UUID: "script", Type: models.ItemJsEngine, ScriptConfig: &models.ScriptConfig{SourceFile: "notes/a.md"}},
		{UUID: "other", Type: models.ItemFile, Link: "notes/b.md"},
	}
	for _, it := range items {
		if _, err := store.AddItem(tb.UUID, it); err != nil {
			t.Fatal(err)
		}
	}
	h.AddFile("notes/z.md", nil)
	h.OpenView("v1", "notes/z.md", models.ViewModeSource)
	rebuildsBefore := eng.rebuilds

	if err := b.Rename("notes/a.md", "notes/z.md"); err != nil {
		t.Fatal(err)
	}

	got, _ := store.Toolbar(tb.UUID)
	want := map[string]string{
		"file":   "notes/z.md",
		"prefix": "notes/a.md.bak",
		"cmd":    "notes/a.md",
		"other":  "notes/b.md",
	}
	for id, link := range want {
		it, _ := got.Item(id)
		if it.Link != link {
			t.Errorf("%s link = %q, want %q", id, it.Link, link)
		}
	}
	if it, _ := got.Item("script"); it.ScriptConfig.SourceFile != "notes/z.md" {
		t.Errorf("script source = %q", it.ScriptConfig.SourceFile)
	}

	if len(eng.renamed) != 1 || eng.renamed[0] != [2]string{"notes/a.md", "notes/z.md"} {
		t.Errorf("engine renames = %v", eng.renamed)
	}
	if eng.rebuilds != rebuildsBefore+1 {
		t.Errorf("rebuilds = %d, want one after the references changed", eng.rebuilds-rebuildsBefore)
	}
	if calls := eng.calls(); len(calls) != 1 || calls[0] != "v1:"+string(engine.TriggerMetadata) {
		t.Errorf("reconciles = %v", calls)
	}
}

func TestBridgeForwarding(t *testing.T) {
	b, eng, store, h := newBridge(t, 0)
	h.AddFile("a.md", nil)
	v := h.OpenView("v1", "a.md", models.ViewModeSource)

	b.FileOpen(v.File())
	b.ActiveLeafChange(v)
	b.LayoutChange()
	b.CSSChange()
	b.ViewClosed("v1")
	_, _ = store.AddToolbar("New")

	want := []string{"v1:file-open", "v1:active-leaf-change", "*:layout-change", "*:css-change"}
	calls := eng.calls()
	if len(calls) != len(want) {
		t.Fatalf("reconciles = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
	if len(eng.forgotten) != 1 {
		t.Errorf("forgotten = %v", eng.forgotten)
	}
	if eng.rebuilds != 1 {
		t.Errorf("rebuilds = %d, want 1", eng.rebuilds)
	}
}

func TestWatcherPairsRenames(t *testing.T) {
	dir := t.TempDir()
	b, eng, store, h := newBridge(t, 10*time.Millisecond)
	tb, _ := store.AddToolbar("Links")
	_, _ = store.AddItem(tb.UUID, models.ToolbarItem{UUID: "f", Type: models.ItemFile, Link: "old.md"})
	h.AddFile("old.md", nil)

	w := &Watcher{root: dir, vault: h, bridge: b}
	w.handle(fsnotify.Event{Name: filepath.Join(dir, "old.md"), Op: fsnotify.Rename})
	w.handle(fsnotify.Event{Name: filepath.Join(dir, "new.md"), Op: fsnotify.Create})

	if _, ok := h.FileInfo("new.md"); !ok {
		t.Error("vault entry not renamed")
	}
	if _, ok := h.FileInfo("old.md"); ok {
		t.Error("old vault entry still present")
	}
	got, _ := store.Toolbar(tb.UUID)
	if it, _ := got.Item("f"); it.Link != "new.md" {
		t.Errorf("link = %q, want new.md", it.Link)
	}
	if len(eng.renamed) != 1 {
		t.Errorf("engine renames = %v", eng.renamed)
	}
}

func TestWatcherReloadsFrontmatter(t *testing.T) {
	dir := t.TempDir()
	b, eng, _, h := newBridge(t, 10*time.Millisecond)
	h.OpenView("v1", "daily.md", models.ViewModeSource)

	path := filepath.Join(dir, "daily.md")
	if err := os.WriteFile(path, []byte("---\nnotetoolbar: Daily\n---\nbody\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := &Watcher{root: dir, vault: h, bridge: b}
	w.handle(fsnotify.Event{Name: path, Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: filepath.Join(dir, ".obsidian", "x.md"), Op: fsnotify.Write})

	f, ok := h.FileInfo("daily.md")
	if !ok || f.Frontmatter["notetoolbar"] != "Daily" {
		t.Fatalf("frontmatter not loaded: %+v", f)
	}
	waitFor(t, func() bool { return len(eng.calls()) == 1 })
}
