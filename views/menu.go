package views

import (
	"context"

	"notetoolbar/models"

	"github.com/rohanthewiz/logger"
)

// MaxSubmenuDepth is how many levels of menu items expand into submenus.
// Deeper menu items stay plain entries that open their toolbar on click.
const MaxSubmenuDepth = 1

// MenuItem is one entry of a host menu
type MenuItem struct {
	UUID      string
	Title     string
	Icon      string
	Tooltip   string
	Type      models.ItemType
	Link      string
	Target    string
	Separator bool
	Submenu   *Menu
}

// Menu is the host-menu form of a toolbar
type Menu struct {
	ToolbarUUID string
	Title       string
	Items       []MenuItem
}

// RenderMenu builds a host menu from a toolbar. Items whose resolved link
// is empty, and command items the host says are unavailable, are left out.
func RenderMenu(ctx context.Context, tb *models.Toolbar, rc *RenderContext) (*Menu, error) {
	return renderMenu(ctx, tb, rc, 0)
}

// MenuFromElement builds a menu from an already rendered element, as used
// by the tab-bar and floating buttons
func MenuFromElement(ctx context.Context, el *Element, rc *RenderContext) *Menu {
	return menuFromItems(ctx, el.ToolbarUUID, el.Name, el.Items, rc, 0)
}

func renderMenu(ctx context.Context, tb *models.Toolbar, rc *RenderContext, level int) (*Menu, error) {
	items, err := BuildItems(ctx, tb, rc)
	if err != nil {
		return nil, err
	}
	return menuFromItems(ctx, tb.UUID, tb.Name, items, rc, level), nil
}

func menuFromItems(ctx context.Context, uuid, title string, items []RenderedItem, rc *RenderContext, level int) *Menu {
	m := &Menu{ToolbarUUID: uuid, Title: title}
	for _, it := range items {
		if it.Hidden {
			continue
		}
		switch it.Type {
		case models.ItemBreak, models.ItemSpreader:
			continue
		case models.ItemSeparator:
			m.addSeparator()
			continue
		case models.ItemCommand:
			if it.Disabled || !rc.commandAvailable(it.Link) {
				continue
			}
		}
		if it.Type.HasLink() && it.Link == "" {
			continue
		}

		entry := MenuItem{
			UUID:    it.UUID,
			Title:   it.Label,
			Icon:    it.Icon,
			Tooltip: it.Tooltip,
			Type:    it.Type,
			Link:    it.Link,
			Target:  it.Target,
		}
		if entry.Title == "" {
			entry.Title = it.Tooltip
		}

		if it.Type == models.ItemMenu && level < MaxSubmenuDepth && rc.Toolbars != nil {
			if target, ok := rc.Toolbars.Toolbar(it.Link); ok && target.UUID != uuid {
				sub, err := renderMenu(ctx, target, rc, level+1)
				if err != nil {
					logger.LogErr(err, "failed to build submenu", "toolbar", target.Name)
				} else {
					entry.Submenu = sub
				}
			}
		}
		m.Items = append(m.Items, entry)
	}
	m.trimSeparators()
	return m
}

// addSeparator appends a separator unless the menu is empty or already
// ends with one
func (m *Menu) addSeparator() {
	if len(m.Items) == 0 || m.Items[len(m.Items)-1].Separator {
		return
	}
	m.Items = append(m.Items, MenuItem{Separator: true, Type: models.ItemSeparator})
}

func (m *Menu) trimSeparators() {
	for len(m.Items) > 0 && m.Items[len(m.Items)-1].Separator {
		m.Items = m.Items[:len(m.Items)-1]
	}
}

// Find returns the entry with the given item uuid, searching submenus
func (m *Menu) Find(uuid string) (*MenuItem, bool) {
	for i := range m.Items {
		if m.Items[i].UUID == uuid && !m.Items[i].Separator {
			return &m.Items[i], true
		}
		if m.Items[i].Submenu != nil {
			if it, ok := m.Items[i].Submenu.Find(uuid); ok {
				return it, true
			}
		}
	}
	return nil, false
}
