package views

import (
	"context"
	"strings"
	"testing"

	"notetoolbar/models"
)

// fakeVars resolves {{name}} from a fixed map
type fakeVars map[string]string

func (f fakeVars) HasVariables(s string) bool {
	return strings.Contains(s, "{{") && strings.Contains(s, "}}")
}

func (f fakeVars) Resolve(_ context.Context, s string, _ *models.File) (string, error) {
	for k, v := range f {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s, nil
}

type toolbarMap map[string]*models.Toolbar

func (m toolbarMap) Toolbar(uuid string) (*models.Toolbar, bool) {
	tb, ok := m[uuid]
	return tb, ok
}

type availability map[string]bool

func (a availability) IsAvailable(id string) bool { return a[id] }

func testContext(toolbars toolbarMap) *RenderContext {
	return &RenderContext{
		File:      &models.File{Path: "Daily/today.md", Name: "today.md"},
		Platform:  models.PlatformDesktop,
		ViewMode:  models.ViewModePreview,
		Variables: fakeVars{"file_name": "today", "empty": ""},
		Toolbars:  toolbars,
	}
}

func TestRenderInlineBar(t *testing.T) {
	tb := &models.Toolbar{
		UUID:          "t1",
		Name:          "Daily",
		Updated:       "2024-01-01T00:00:00Z",
		DefaultStyles: []string{"border", "center"},
		MobileStyles:  []string{"wide"},
		CustomClasses: "mine",
		Items: []models.ToolbarItem{
			{UUID: "a", Label: "Open {{file_name}}", Type: models.ItemFile, Link: "Daily/{{file_name}}.md"},
			{UUID: "sep", Type: models.ItemSeparator},
			{UUID: "empty", Type: models.ItemCommand, Link: "app:noop"},
			{UUID: "c", Label: "Cmd", Icon: "star", Type: models.ItemCommand, Link: "app:open"},
		},
	}
	el, err := Render(context.Background(), tb, models.PositionTop, testContext(nil))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(el.Items) != 3 {
		t.Fatalf("items = %d, want 3 (empty item skipped)", len(el.Items))
	}
	if el.Items[0].Label != "Open today" || el.Items[0].Link != "Daily/today.md" {
		t.Errorf("item 0 = %+v", el.Items[0])
	}

	html := el.HTML()
	for _, want := range []string{
		`data-name="Daily"`,
		`data-updated="2024-01-01T00:00:00Z"`,
		`data-csstype="top"`,
		`data-viewmode="preview"`,
		`mbl-wide`,
		`mine`,
		`role="separator"`,
		`data-icon="star"`,
		`Open today`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %s", want)
		}
	}
	if strings.Contains(html, `data-uuid="empty"`) {
		t.Error("empty item was rendered")
	}
}

func TestEmptySpacersAreKept(t *testing.T) {
	tb := &models.Toolbar{UUID: "t1", Items: []models.ToolbarItem{
		{UUID: "b", Type: models.ItemBreak},
		{UUID: "s", Type: models.ItemSpreader},
		{UUID: "x", Type: models.ItemURI, Link: "https://example.com"},
	}}
	items, err := BuildItems(context.Background(), tb, testContext(nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("items = %d, want break and spreader only", len(items))
	}
}

func TestGroupSelfReferenceTerminates(t *testing.T) {
	parent := &models.Toolbar{UUID: "p", Name: "Parent", Items: []models.ToolbarItem{
		{UUID: "a", Label: "A", Type: models.ItemCommand, Link: "x"},
		{UUID: "g", Label: "Self", Type: models.ItemGroup, Link: "p"},
	}}
	items, err := BuildItems(context.Background(), parent, testContext(toolbarMap{"p": parent}))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].UUID != "a" {
		t.Errorf("items = %+v", items)
	}
}

func TestGroupMutualCycleAndDepth(t *testing.T) {
	a := &models.Toolbar{UUID: "ta", Items: []models.ToolbarItem{
		{UUID: "a1", Label: "A1", Type: models.ItemCommand, Link: "x"},
		{UUID: "ga", Label: "to B", Type: models.ItemGroup, Link: "tb"},
	}}
	b := &models.Toolbar{UUID: "tb", Items: []models.ToolbarItem{
		{UUID: "b1", Label: "B1", Type: models.ItemCommand, Link: "x"},
		{UUID: "gb", Label: "to C", Type: models.ItemGroup, Link: "tc"},
	}}
	c := &models.Toolbar{UUID: "tc", Items: []models.ToolbarItem{
		{UUID: "c1", Label: "C1", Type: models.ItemCommand, Link: "x"},
		{UUID: "gc", Label: "to D", Type: models.ItemGroup, Link: "td"},
		{UUID: "gca", Label: "to A", Type: models.ItemGroup, Link: "ta"},
	}}
	d := &models.Toolbar{UUID: "td", Items: []models.ToolbarItem{
		{UUID: "d1", Label: "D1", Type: models.ItemCommand, Link: "x"},
	}}
	rc := testContext(toolbarMap{"ta": a, "tb": b, "tc": c, "td": d})

	items, err := BuildItems(context.Background(), a, rc)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, it := range items {
		got = append(got, it.UUID)
	}
	// D sits three groups deep and A is already on the path
	if strings.Join(got, ",") != "a1,b1,c1" {
		t.Errorf("items = %v", got)
	}
	if items[2].Depth != MaxGroupDepth || items[2].GroupUUID != "gb" {
		t.Errorf("c1 depth=%d group=%q", items[2].Depth, items[2].GroupUUID)
	}
}

func TestGroupHiddenOnPlatformIsNotSpliced(t *testing.T) {
	inner := &models.Toolbar{UUID: "in", Items: []models.ToolbarItem{{UUID: "i", Label: "I", Type: models.ItemCommand}}}
	outer := &models.Toolbar{UUID: "out", Items: []models.ToolbarItem{{
		UUID: "g", Label: "G", Type: models.ItemGroup, Link: "in",
		Visibility: models.Visibility{Mobile: models.ComponentVisibility{HideIcon: true, HideLabel: true}},
	}}}
	rc := testContext(toolbarMap{"in": inner})
	rc.Platform = models.PlatformMobile
	items, _ := BuildItems(context.Background(), outer, rc)
	if len(items) != 0 {
		t.Errorf("items = %+v", items)
	}

	rc.Platform = models.PlatformDesktop
	items, _ = BuildItems(context.Background(), outer, rc)
	if len(items) != 1 {
		t.Errorf("desktop items = %+v", items)
	}
}

func TestEmptyVariableLinkHidden(t *testing.T) {
	tb := &models.Toolbar{UUID: "t", Name: "T", Items: []models.ToolbarItem{
		{UUID: "gone", Label: "Maybe", Type: models.ItemURI, Link: "{{empty}}"},
		{UUID: "kept", Label: "Kept", Type: models.ItemURI, Link: "https://example.com"},
	}}
	rc := testContext(nil)

	el, err := Render(context.Background(), tb, models.PositionProps, rc)
	if err != nil {
		t.Fatal(err)
	}
	gone, _ := el.Item("gone")
	if !gone.Hidden || !gone.EmptyLink {
		t.Errorf("gone = %+v, want hidden", gone)
	}
	if !strings.Contains(el.HTML(), "hide") {
		t.Error("hidden item lacks the hide class")
	}

	menu, err := RenderMenu(context.Background(), tb, rc)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := menu.Find("gone"); ok {
		t.Error("empty link item present in menu")
	}
	if _, ok := menu.Find("kept"); !ok {
		t.Error("valid item missing from menu")
	}
}

func TestVisibilityClasses(t *testing.T) {
	it := RenderedItem{Visibility: models.Visibility{
		Desktop: models.ComponentVisibility{HideIcon: true, HideLabel: true},
		Mobile:  models.ComponentVisibility{HideIcon: true},
		Tablet:  models.ComponentVisibility{HideLabel: true},
	}}
	got := itemClasses(it)
	if got != "hide-on-desktop hide-icon-on-mobile hide-label-on-tablet" {
		t.Errorf("classes = %q", got)
	}
	if strings.Contains(got, "hide-icon-on-desktop") {
		t.Error("fully hidden platform also got a partial class")
	}
}

func TestMenuCommandAvailabilityAndSubmenus(t *testing.T) {
	deep := &models.Toolbar{UUID: "deep", Name: "Deep", Items: []models.ToolbarItem{
		{UUID: "d1", Label: "D1", Type: models.ItemURI, Link: "https://d"},
	}}
	sub := &models.Toolbar{UUID: "sub", Name: "Sub", Items: []models.ToolbarItem{
		{UUID: "s1", Label: "S1", Type: models.ItemURI, Link: "https://s"},
		{UUID: "sm", Label: "More", Type: models.ItemMenu, Link: "deep"},
	}}
	main := &models.Toolbar{UUID: "main", Name: "Main", Items: []models.ToolbarItem{
		{UUID: "sep0", Type: models.ItemSeparator},
		{UUID: "on", Label: "On", Type: models.ItemCommand, Link: "cmd:on"},
		{UUID: "off", Label: "Off", Type: models.ItemCommand, Link: "cmd:off"},
		{UUID: "sep1", Type: models.ItemSeparator},
		{UUID: "m", Label: "Sub", Type: models.ItemMenu, Link: "sub"},
		{UUID: "sep2", Type: models.ItemSeparator},
	}}
	rc := testContext(toolbarMap{"deep": deep, "sub": sub, "main": main})
	rc.Commands = availability{"cmd:on": true}

	menu, err := RenderMenu(context.Background(), main, rc)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := menu.Find("off"); ok {
		t.Error("unavailable command present in menu")
	}
	if len(menu.Items) != 3 || !menu.Items[1].Separator {
		t.Fatalf("menu items = %+v", menu.Items)
	}
	m, _ := menu.Find("m")
	if m.Submenu == nil || len(m.Submenu.Items) != 2 {
		t.Fatalf("submenu = %+v", m.Submenu)
	}
	more := m.Submenu.Items[1]
	if more.Submenu != nil {
		t.Error("second-level menu item was expanded")
	}
	if more.Link != "deep" {
		t.Errorf("deep menu link = %q", more.Link)
	}
}

func TestFabDefaultItem(t *testing.T) {
	tb := &models.Toolbar{UUID: "t", Name: "Fab", DefaultItem: "d", Items: []models.ToolbarItem{
		{UUID: "d", Label: "New note", Icon: "plus", Type: models.ItemCommand, Link: "file:new"},
		{UUID: "x", Label: "Other", Type: models.ItemCommand, Link: "file:other"},
	}}
	el, _ := Render(context.Background(), tb, models.PositionFabR, testContext(nil))
	html := el.HTML()
	if !strings.Contains(html, `data-default-item="d"`) || !strings.Contains(html, `data-icon="plus"`) {
		t.Errorf("fab html = %s", html)
	}

	tb.DefaultItem = ""
	el, _ = Render(context.Background(), tb, models.PositionFabR, testContext(nil))
	html = el.HTML()
	if strings.Contains(html, "data-default-item") || !strings.Contains(html, DefaultFabIcon) {
		t.Errorf("generic fab html = %s", html)
	}
}

func TestRenderHiddenPosition(t *testing.T) {
	el, err := Render(context.Background(), &models.Toolbar{UUID: "t"}, models.PositionHidden, testContext(nil))
	if err != nil || el != nil {
		t.Errorf("el=%v err=%v", el, err)
	}
}

func TestElementDiffAndApply(t *testing.T) {
	el := &Element{Items: []RenderedItem{
		{UUID: "a", Label: "one"},
		{UUID: "b", Label: "two"},
	}}
	_ = el.HTML()
	patches := el.Diff([]RenderedItem{{UUID: "a", Label: "one"}, {UUID: "b", Label: "three", Hidden: true}})
	if len(patches) != 1 || patches[0].UUID != "b" {
		t.Fatalf("patches = %+v", patches)
	}
	el.Apply(Patch{Items: patches})
	if b, _ := el.Item("b"); b.Label != "three" || !b.Hidden {
		t.Errorf("b = %+v", b)
	}
	if !strings.Contains(el.HTML(), "three") {
		t.Error("markup not refreshed after patch")
	}
}

func TestRenderText(t *testing.T) {
	el := &Element{Name: "Daily", Position: models.PositionTop, Items: []RenderedItem{
		{UUID: "a", Label: "Open", Type: models.ItemFile},
		{UUID: "s", Type: models.ItemSeparator},
		{UUID: "h", Label: "Secret", Type: models.ItemFile, Hidden: true},
		{UUID: "i", Icon: "star", Type: models.ItemCommand},
	}}
	out := RenderText(el)
	for _, want := range []string{"Daily", "Open", "[star]"} {
		if !strings.Contains(out, want) {
			t.Errorf("strip missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Secret") {
		t.Error("hidden item drawn")
	}
}

func TestCenterStyle(t *testing.T) {
	if got := CenterStyle(800, 200); got != "left: 300px" {
		t.Errorf("got %q", got)
	}
	if got := CenterStyle(100, 200); got != "left: 0px" {
		t.Errorf("got %q", got)
	}
	if got := CenterStyle(0, 200); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestCloneSharesNothing(t *testing.T) {
	el := &Element{Classes: []string{"a"}, Items: []RenderedItem{{UUID: "x", Label: "one"}}}
	cp := el.Clone()
	el.Apply(Patch{Items: []ItemPatch{{UUID: "x", Label: "two"}}})
	el.Classes[0] = "b"
	if cp.Items[0].Label != "one" || cp.Classes[0] != "a" {
		t.Errorf("clone changed with original: %+v", cp)
	}
	if (*Element)(nil).Clone() != nil {
		t.Error("nil clone should be nil")
	}
}
