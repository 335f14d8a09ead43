package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"notetoolbar/host"
	"notetoolbar/host/memhost"
	"notetoolbar/models"
	"notetoolbar/variables"
	"notetoolbar/views"
)

type fixture struct {
	store *models.ConfigStore
	host  *memhost.Host
	eng   *Engine
	tb    *models.Toolbar
}

// newFixture sets up one toolbar "Daily" (top on every platform) with two
// command items, mapped to every folder
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := models.NewConfigStore(models.NewSettings(), models.NewMemoryStore(nil))
	ticks := 0
	store.SetClock(func() time.Time {
		ticks++
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(ticks) * time.Second)
	})

	tb, err := store.AddToolbar("Daily")
	if err != nil {
		t.Fatal(err)
	}
	err = store.UpdateSettings(func(st *models.Settings) error {
		d, _ := st.ToolbarByUUID(tb.UUID)
		d.Positions = models.Positions{Desktop: models.PositionTop, Mobile: models.PositionTop, Tablet: models.PositionTop}
		d.Items = []models.ToolbarItem{
			{UUID: "i1", Label: "Bold", Type: models.ItemCommand, Link: "editor:bold"},
			{UUID: "i2", Label: "{{prop_status}}", Type: models.ItemCommand, Link: "editor:status"},
		}
		st.FolderMappings = []models.FolderMapping{{Folder: "*", ToolbarUUID: tb.UUID}}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	tb, _ = store.Toolbar(tb.UUID)

	h := memhost.New(models.PlatformDesktop)
	h.RegisterCommand("editor:bold", "Bold", nil, nil)
	h.RegisterCommand("editor:status", "Status", nil, nil)
	h.AddFile("notes/today.md", map[string]any{"status": "draft"})

	eng := New(store, h, h, Options{Variables: &variables.Resolver{}})
	return &fixture{store: store, host: h, eng: eng, tb: tb}
}

func (f *fixture) reconcile(t *testing.T, v host.View, trigger Trigger) Outcome {
	t.Helper()
	out, err := f.eng.Reconcile(context.Background(), v, trigger)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	return out
}

func TestReconcileRendersOnce(t *testing.T) {
	f := newFixture(t)
	v := f.host.OpenView("v1", "notes/today.md", models.ViewModeSource)

	if got := f.reconcile(t, v, TriggerFileOpen); got != OutcomeRendered {
		t.Fatalf("first pass = %s, want rendered", got)
	}
	el, ok := f.eng.Locate("v1")
	if !ok {
		t.Fatal("no element registered")
	}
	if len(el.Items) != 2 || el.Items[0].Label != "Bold" || el.Items[1].Label != "draft" {
		t.Errorf("unexpected items: %+v", el.Items)
	}
	if f.eng.StateOf("v1") != Rendered {
		t.Errorf("state = %s", f.eng.StateOf("v1"))
	}

	// An unrelated metadata event must not re-render
	if got := f.reconcile(t, v, TriggerMetadata); got != OutcomePatched {
		t.Errorf("second pass = %s, want patched", got)
	}
	ins, rem, patches := v.Counts()
	if ins != 1 || rem != 0 || patches != 0 {
		t.Errorf("counts = %d inserts, %d removes, %d patches", ins, rem, patches)
	}
	if len(v.Elements()) != 1 {
		t.Errorf("%d toolbars attached, want 1", len(v.Elements()))
	}
}

func TestPropertyChangePatchesInPlace(t *testing.T) {
	f := newFixture(t)
	v := f.host.OpenView("v1", "notes/today.md", models.ViewModeSource)
	f.reconcile(t, v, TriggerFileOpen)

	f.host.SetFrontmatter("notes/today.md", map[string]any{"status": "done"})
	if got := f.reconcile(t, v, TriggerMetadata); got != OutcomePatched {
		t.Fatalf("pass = %s, want patched", got)
	}
	ins, rem, patches := v.Counts()
	if ins != 1 || rem != 0 || patches != 1 {
		t.Errorf("counts = %d inserts, %d removes, %d patches", ins, rem, patches)
	}
	el, _ := f.eng.Locate("v1")
	if it, _ := el.Item("i2"); it.Label != "done" {
		t.Errorf("label = %q, want done", it.Label)
	}
}

func TestUpdatedToolbarRebuildsWithoutOverlap(t *testing.T) {
	f := newFixture(t)
	v := f.host.OpenView("v1", "notes/today.md", models.ViewModeSource)
	f.reconcile(t, v, TriggerFileOpen)

	overlap := false
	v.OnInsert = func(*views.Element) {
		if len(v.Elements()) != 0 {
			overlap = true
		}
	}
	err := f.store.UpdateToolbar(f.tb.UUID, func(tb *models.Toolbar) error {
		tb.Items[0].Label = "Strong"
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := f.reconcile(t, v, TriggerSettings); got != OutcomeRebuilt {
		t.Fatalf("pass = %s, want rebuilt", got)
	}
	if overlap {
		t.Error("new toolbar inserted while old one still attached")
	}
	ins, rem, _ := v.Counts()
	if ins != 2 || rem != 1 {
		t.Errorf("counts = %d inserts, %d removes", ins, rem)
	}
	el, _ := f.eng.Locate("v1")
	if el.Items[0].Label != "Strong" {
		t.Errorf("label = %q", el.Items[0].Label)
	}
}

func TestStaleReasons(t *testing.T) {
	tests := []struct {
		name   string
		change func(f *fixture, v *memhost.View, el *views.Element)
	}{
		{"view mode", func(f *fixture, v *memhost.View, _ *views.Element) {
			v.SetMode(models.ViewModePreview)
		}},
		{"misplaced after content", func(f *fixture, v *memhost.View, el *views.Element) {
			v.SetSibling(el, host.SiblingContent)
		}},
		{"position", func(f *fixture, _ *memhost.View, _ *views.Element) {
			_ = f.store.UpdateToolbar(f.tb.UUID, func(tb *models.Toolbar) error {
				tb.Positions.Desktop = models.PositionBottom
				return nil
			})
		}},
		{"renamed toolbar", func(f *fixture, _ *memhost.View, _ *views.Element) {
			_ = f.store.UpdateToolbar(f.tb.UUID, func(tb *models.Toolbar) error {
				tb.Name = "Weekly"
				return nil
			})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			v := f.host.OpenView("v1", "notes/today.md", models.ViewModeSource)
			f.reconcile(t, v, TriggerFileOpen)
			el := v.Elements()[0]

			tt.change(f, v, el)
			if got := f.reconcile(t, v, TriggerLayout); got != OutcomeRebuilt {
				t.Errorf("pass = %s, want rebuilt", got)
			}
			if n := len(v.Elements()); n != 1 {
				t.Errorf("%d toolbars attached, want 1", n)
			}
		})
	}
}

func TestDuplicateToolbarsAreRepaired(t *testing.T) {
	f := newFixture(t)
	v := f.host.OpenView("v1", "notes/today.md", models.ViewModeSource)
	f.reconcile(t, v, TriggerFileOpen)
	tracked := v.Elements()[0]

	dup, err := views.Render(context.Background(), f.tb, models.PositionTop, &views.RenderContext{ViewMode: models.ViewModeSource})
	if err != nil {
		t.Fatal(err)
	}
	v.Attach(dup)

	f.reconcile(t, v, TriggerLayout)
	els := v.Elements()
	if len(els) != 1 {
		t.Fatalf("%d toolbars attached, want 1", len(els))
	}
	if els[0] != tracked {
		t.Error("kept the duplicate instead of the tracked toolbar")
	}
}

func TestHostDetachResetsToAbsent(t *testing.T) {
	f := newFixture(t)
	v := f.host.OpenView("v1", "notes/today.md", models.ViewModeSource)
	f.reconcile(t, v, TriggerFileOpen)

	v.DetachAll()
	if got := f.reconcile(t, v, TriggerLayout); got != OutcomeRendered {
		t.Errorf("pass = %s, want rendered", got)
	}
	if len(v.Elements()) != 1 {
		t.Errorf("%d toolbars attached", len(v.Elements()))
	}
}

func TestNoAnchorIsNotAnError(t *testing.T) {
	f := newFixture(t)
	v := f.host.OpenView("v1", "notes/today.md", models.ViewModeSource)
	v.SetDetached(true)

	if got := f.reconcile(t, v, TriggerFileOpen); got != OutcomeNone {
		t.Errorf("pass = %s, want none", got)
	}
	if f.eng.StateOf("v1") != Absent {
		t.Errorf("state = %s, want absent", f.eng.StateOf("v1"))
	}
}

func TestReentrantPassIsDropped(t *testing.T) {
	f := newFixture(t)
	v := f.host.OpenView("v1", "notes/today.md", models.ViewModeSource)

	var inner Outcome
	v.OnInsert = func(*views.Element) {
		inner, _ = f.eng.Reconcile(context.Background(), v, TriggerLayout)
	}
	f.reconcile(t, v, TriggerFileOpen)
	if inner != OutcomeDropped {
		t.Errorf("inner pass = %s, want dropped", inner)
	}
	if len(v.Elements()) != 1 {
		t.Errorf("%d toolbars attached", len(v.Elements()))
	}
}

func TestSuppressedAndRemoved(t *testing.T) {
	f := newFixture(t)
	v := f.host.OpenView("v1", "notes/today.md", models.ViewModeSource)
	f.reconcile(t, v, TriggerFileOpen)

	f.host.SetFrontmatter("notes/today.md", map[string]any{"notetoolbar": "none"})
	if got := f.reconcile(t, v, TriggerMetadata); got != OutcomeRemoved {
		t.Errorf("pass = %s, want removed", got)
	}
	if len(v.Elements()) != 0 {
		t.Error("toolbar still attached")
	}
	if got := f.reconcile(t, v, TriggerMetadata); got != OutcomeNone {
		t.Errorf("pass = %s, want none", got)
	}
}

func TestHiddenPositionRendersNothing(t *testing.T) {
	f := newFixture(t)
	_ = f.store.UpdateToolbar(f.tb.UUID, func(tb *models.Toolbar) error {
		tb.Positions.Desktop = models.PositionHidden
		return nil
	})
	v := f.host.OpenView("v1", "notes/today.md", models.ViewModeSource)
	if got := f.reconcile(t, v, TriggerFileOpen); got != OutcomeNone {
		t.Errorf("pass = %s, want none", got)
	}
}

func TestMissingToolbarWarnsOncePerValue(t *testing.T) {
	f := newFixture(t)
	f.host.AddFile("notes/odd.md", map[string]any{"notetoolbar": "Nope"})
	v := f.host.OpenView("v1", "notes/odd.md", models.ViewModeSource)

	f.reconcile(t, v, TriggerFileOpen)
	f.reconcile(t, v, TriggerMetadata)
	if n := len(f.host.Notices()); n != 1 {
		t.Fatalf("%d notices, want 1: %v", n, f.host.Notices())
	}
	if !strings.Contains(f.host.Notices()[0], "Nope") {
		t.Errorf("notice = %q", f.host.Notices()[0])
	}
	// The folder mapping still applies
	if len(v.Elements()) != 1 {
		t.Error("fallback toolbar not rendered")
	}

	f.host.SetFrontmatter("notes/odd.md", map[string]any{"notetoolbar": "Other"})
	f.reconcile(t, v, TriggerMetadata)
	if n := len(f.host.Notices()); n != 2 {
		t.Errorf("%d notices after value change, want 2", n)
	}
}

func TestBottomToolbarIsCentered(t *testing.T) {
	f := newFixture(t)
	_ = f.store.UpdateToolbar(f.tb.UUID, func(tb *models.Toolbar) error {
		tb.Positions.Desktop = models.PositionBottom
		return nil
	})
	v := f.host.OpenView("v1", "notes/today.md", models.ViewModeSource)
	f.reconcile(t, v, TriggerFileOpen)

	el, _ := f.eng.Locate("v1")
	want := views.CenterStyle(800, 2*memhost.ItemWidth)
	if el.Style != want {
		t.Errorf("style = %q, want %q", el.Style, want)
	}

	v.SetWidth(1000)
	if got := f.reconcile(t, v, TriggerLayout); got != OutcomePatched {
		t.Fatalf("pass = %s, want patched", got)
	}
	if want := views.CenterStyle(1000, 2*memhost.ItemWidth); el.Style != want {
		t.Errorf("style = %q, want %q", el.Style, want)
	}
}

func TestSelectionToolbarLivesBesideAnchored(t *testing.T) {
	f := newFixture(t)
	text, _ := f.store.AddToolbar("Format")
	_ = f.store.UpdateSettings(func(st *models.Settings) error {
		st.TextToolbar = text.UUID
		return nil
	})
	v := f.host.OpenView("v1", "notes/today.md", models.ViewModeSource)
	f.reconcile(t, v, TriggerFileOpen)

	v.SetSelection("hello")
	el, err := f.eng.ShowSelectionToolbar(context.Background(), v)
	if err != nil || el == nil {
		t.Fatalf("show: %v, %v", el, err)
	}
	if el.Position != models.PositionText {
		t.Errorf("position = %s", el.Position)
	}

	// The floating toolbar is not a duplicate of the anchored one
	if got := f.reconcile(t, v, TriggerLayout); got != OutcomePatched {
		t.Errorf("pass = %s, want patched", got)
	}
	if len(v.Elements()) != 2 {
		t.Errorf("%d elements attached, want 2", len(v.Elements()))
	}

	f.eng.SelectionCloser(v).Close()
	if len(v.Elements()) != 1 {
		t.Errorf("%d elements after close, want 1", len(v.Elements()))
	}
}

func TestReconcileAllCoversEveryView(t *testing.T) {
	f := newFixture(t)
	f.host.AddFile("other.md", nil)
	a := f.host.OpenView("a", "notes/today.md", models.ViewModeSource)
	b := f.host.OpenView("b", "other.md", models.ViewModePreview)

	f.eng.ReconcileAll(context.Background(), TriggerLayout)
	if len(a.Elements()) != 1 || len(b.Elements()) != 1 {
		t.Errorf("attached: a=%d b=%d", len(a.Elements()), len(b.Elements()))
	}

	f.eng.RebuildAll(context.Background())
	ins, rem, _ := a.Counts()
	if ins != 2 || rem != 1 {
		t.Errorf("rebuild counts = %d inserts, %d removes", ins, rem)
	}
	if len(f.eng.Rendered()) != 2 {
		t.Errorf("rendered = %v", f.eng.Rendered())
	}

	f.eng.Forget("a")
	if _, ok := f.eng.Locate("a"); ok {
		t.Error("forgotten view still located")
	}
}

func TestLocateReturnsSnapshot(t *testing.T) {
	f := newFixture(t)
	v := f.host.OpenView("v1", "notes/today.md", models.ViewModeSource)
	f.reconcile(t, v, TriggerFileOpen)

	before, _ := f.eng.Locate("v1")
	f.host.SetFrontmatter("notes/today.md", map[string]any{"status": "done"})
	if got := f.reconcile(t, v, TriggerMetadata); got != OutcomePatched {
		t.Fatalf("pass = %s, want patched", got)
	}
	if it, _ := before.Item("i2"); it.Label != "draft" {
		t.Errorf("earlier copy changed to %q", it.Label)
	}
	after, _ := f.eng.Locate("v1")
	if it, _ := after.Item("i2"); it.Label != "done" {
		t.Errorf("label = %q, want done", it.Label)
	}
}

// Readers of a rendered toolbar run beside patch passes on the same view;
// run with -race.
func TestLocateConcurrentWithPatch(t *testing.T) {
	f := newFixture(t)
	v := f.host.OpenView("v1", "notes/today.md", models.ViewModeSource)
	f.reconcile(t, v, TriggerFileOpen)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			status := "draft"
			if i%2 == 1 {
				status = "done"
			}
			f.host.SetFrontmatter("notes/today.md", map[string]any{"status": status})
			if _, err := f.eng.Reconcile(context.Background(), v, TriggerMetadata); err != nil {
				t.Errorf("reconcile: %v", err)
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		if el, ok := f.eng.Locate("v1"); ok && !strings.Contains(el.HTML(), "Bold") {
			t.Fatal("markup lost its items")
		}
	}
}
