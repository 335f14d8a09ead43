package views

import (
	"context"
	"html"
	"strings"

	"notetoolbar/models"

	"github.com/rohanthewiz/element"
)

// CSS hooks shared by every rendered toolbar
const (
	ContainerClass = "cg-note-toolbar-container"
	FabClass       = "cg-note-toolbar-fab"
	TabBarClass    = "cg-note-toolbar-tabbar"
	TextClass      = "cg-note-toolbar-text"
	DefaultFabIcon = "circle-ellipsis"
)

// Render builds the element for a toolbar at a position.
// Returns nil for the hidden position, which has no on-screen form.
func Render(ctx context.Context, tb *models.Toolbar, pos models.PositionType, rc *RenderContext) (*Element, error) {
	if pos == models.PositionHidden {
		return nil, nil
	}
	items, err := BuildItems(ctx, tb, rc)
	if err != nil {
		return nil, err
	}

	el := &Element{
		ToolbarUUID: tb.UUID,
		Name:        tb.Name,
		Updated:     tb.Updated,
		Position:    pos,
		ViewMode:    rc.ViewMode,
		Platform:    rc.Platform,
		StyleKey:    tb.StyleKey(),
		Classes:     toolbarClasses(tb),
		DefaultItem: tb.DefaultItem,
		Items:       items,
	}
	return el, nil
}

func toolbarClasses(tb *models.Toolbar) []string {
	return append(tb.StyleClasses(), strings.Fields(tb.CustomClasses)...)
}

// renderHTML picks the markup shape for the element's position
func renderHTML(el *Element) string {
	b := element.NewBuilder()
	switch el.Position {
	case models.PositionTabBar:
		tabBarButton{el: el}.Render(b)
	case models.PositionFabL, models.PositionFabR:
		fabButton{el: el}.Render(b)
	default:
		inlineBar{el: el}.Render(b)
	}
	return b.String()
}

// dataAttrs are the attributes the reconciler compares against config
func dataAttrs(el *Element) []string {
	return []string{
		"data-name", el.Name,
		"data-tbuuid", el.ToolbarUUID,
		"data-updated", el.Updated,
		"data-csstype", string(el.Position),
		"data-viewmode", string(el.ViewMode),
	}
}

// inlineBar renders the top, bottom, props and text positions
type inlineBar struct {
	el *Element
}

func (c inlineBar) Render(b *element.Builder) (x any) {
	el := c.el
	classes := append([]string{ContainerClass, "cg-note-toolbar-" + string(el.Position)}, el.Classes...)
	if el.Position == models.PositionText {
		classes = append(classes, TextClass)
	}

	attrs := append([]string{"class", strings.Join(classes, " ")}, dataAttrs(el)...)
	if el.Style != "" {
		attrs = append(attrs, "style", el.Style)
	}

	b.Div(attrs...).R(
		b.DivClass("callout-content").R(
			b.Ul("role", "menu").R(
				element.ForEach(el.Items, func(it RenderedItem) {
					renderItem(b, it)
				}),
			),
		),
	)
	return
}

func renderItem(b *element.Builder, it RenderedItem) {
	if it.Type.IsSpacer() {
		attrs := []string{"data-spacer", string(it.Type), "data-uuid", it.UUID}
		if it.Type == models.ItemSeparator {
			attrs = append(attrs, "role", "separator")
		}
		b.Li(attrs...).R()
		return
	}

	li := []string{"data-uuid", it.UUID, "data-type", string(it.Type)}
	if cls := itemClasses(it); cls != "" {
		li = append(li, "class", cls)
	}

	a := []string{
		"class", "external-link",
		"href", "#",
		"role", "menuitem",
		"data-toolbar-link-attr-type", string(it.Type),
		"data-toolbar-link", it.Link,
	}
	if it.Tooltip != "" {
		a = append(a, "data-tooltip", it.Tooltip, "aria-label", it.Tooltip)
	}
	if it.Disabled {
		a = append(a, "aria-disabled", "true")
	}

	b.Li(li...).R(
		b.A(a...).R(
			b.Wrap(func() {
				if it.Icon != "" && !it.HideIcon {
					b.Span("class", "cg-note-toolbar-icon", "data-icon", it.Icon).R()
				}
			}),
			b.Wrap(func() {
				if it.Label != "" && !it.HideLabel {
					b.SpanClass("cg-note-toolbar-item-label").T(html.EscapeString(it.Label))
				}
			}),
		),
	)
}

// itemClasses emits per-platform visibility classes. An item with both
// components hidden on a platform gets one hide class for it, never the
// two partial ones.
func itemClasses(it RenderedItem) string {
	var cls []string
	for _, p := range []models.Platform{models.PlatformDesktop, models.PlatformMobile, models.PlatformTablet} {
		v := it.Visibility.For(p)
		switch {
		case v.HideIcon && v.HideLabel:
			cls = append(cls, "hide-on-"+string(p))
		case v.HideIcon:
			cls = append(cls, "hide-icon-on-"+string(p))
		case v.HideLabel:
			cls = append(cls, "hide-label-on-"+string(p))
		}
	}
	if it.Hidden {
		cls = append(cls, "hide")
	}
	if it.Disabled {
		cls = append(cls, "is-disabled")
	}
	if it.GroupUUID != "" {
		cls = append(cls, "in-group")
	}
	return strings.Join(cls, " ")
}

// tabBarButton is a single icon in the tab bar that opens the toolbar
// as a menu
type tabBarButton struct {
	el *Element
}

func (c tabBarButton) Render(b *element.Builder) (x any) {
	attrs := append([]string{"class", TabBarClass + " clickable-icon", "aria-label", c.el.Name}, dataAttrs(c.el)...)
	b.Div(attrs...).R(
		b.Span("class", "cg-note-toolbar-icon", "data-icon", DefaultFabIcon).R(),
	)
	return
}

// fabButton is the floating action button. With a default item it runs
// that item; otherwise it opens the whole toolbar as a menu.
type fabButton struct {
	el *Element
}

func (c fabButton) Render(b *element.Builder) (x any) {
	el := c.el
	attrs := append([]string{
		"class", strings.Join(append([]string{ContainerClass, FabClass + "-container"}, el.Classes...), " "),
	}, dataAttrs(el)...)

	icon, label, tooltip := DefaultFabIcon, "", el.Name
	btn := []string{"class", FabClass, "role", "button"}
	if def, ok := el.defaultItem(); ok {
		btn = append(btn, "data-default-item", def.UUID)
		icon = def.Icon
		if icon == "" {
			label = def.Label
		}
		if def.Tooltip != "" {
			tooltip = def.Tooltip
		} else if def.Label != "" {
			tooltip = def.Label
		}
	}
	btn = append(btn, "aria-label", tooltip)

	b.Div(attrs...).R(
		b.Button(btn...).R(
			b.Wrap(func() {
				if icon != "" {
					b.Span("class", "cg-note-toolbar-icon", "data-icon", icon).R()
				}
			}),
			b.Wrap(func() {
				if label != "" {
					b.SpanClass("cg-note-toolbar-item-label").T(html.EscapeString(label))
				}
			}),
		),
	)
	return
}

// defaultItem returns the rendered default item when it is shown
func (e *Element) defaultItem() (*RenderedItem, bool) {
	if e.DefaultItem == "" {
		return nil, false
	}
	it, ok := e.Item(e.DefaultItem)
	if !ok || it.Hidden {
		return nil, false
	}
	return it, true
}
