package views

import (
	"context"
	"strings"

	"notetoolbar/models"

	"github.com/rohanthewiz/logger"
	"golang.org/x/sync/errgroup"
)

// MaxGroupDepth bounds how many levels of group items are spliced
const MaxGroupDepth = 2

// resolveLimit caps concurrent variable resolutions in one pass
const resolveLimit = 8

// BuildItems flattens a toolbar into its rendered item list: empty items
// are dropped, groups are spliced in place, variables are resolved and
// per-platform visibility is applied.
func BuildItems(ctx context.Context, tb *models.Toolbar, rc *RenderContext) ([]RenderedItem, error) {
	visited := map[string]bool{tb.UUID: true}
	items := collectItems(tb, rc, 0, "", visited)
	if err := resolveItems(ctx, items, rc); err != nil {
		return nil, err
	}
	for i := range items {
		finishItem(&items[i], rc)
	}
	return items, nil
}

// collectItems walks the toolbar, splicing groups. A group that points at a
// toolbar already on the current path, or that would exceed MaxGroupDepth,
// is dropped.
func collectItems(tb *models.Toolbar, rc *RenderContext, depth int, groupUUID string,
	visited map[string]bool) []RenderedItem {

	out := make([]RenderedItem, 0, len(tb.Items))
	for _, item := range tb.Items {
		if item.Label == "" && item.Icon == "" && !keepsWhenEmpty(item.Type) {
			continue
		}

		if item.Type == models.ItemGroup {
			vis := item.Visibility.For(rc.Platform)
			if vis.HideIcon && vis.HideLabel {
				continue
			}
			if depth >= MaxGroupDepth || visited[item.Link] {
				logger.Debug("Group not expanded", "toolbar", tb.Name, "group", item.Link, "depth", depth)
				continue
			}
			if rc.Toolbars == nil {
				continue
			}
			target, ok := rc.Toolbars.Toolbar(item.Link)
			if !ok {
				logger.LogErr(&models.ConfigurationError{Kind: "toolbar", Ref: item.Link},
					"group item references a missing toolbar", "toolbar", tb.Name)
				continue
			}
			visited[target.UUID] = true
			out = append(out, collectItems(target, rc, depth+1, item.UUID, visited)...)
			delete(visited, target.UUID)
			continue
		}

		out = append(out, newRenderedItem(item, rc, depth, groupUUID))
	}
	return out
}

// keepsWhenEmpty lists types that render with neither label nor icon.
// Spreader is a spacer like Break and Separator and has nothing to show.
func keepsWhenEmpty(t models.ItemType) bool {
	switch t {
	case models.ItemBreak, models.ItemGroup, models.ItemSeparator, models.ItemSpreader:
		return true
	}
	return false
}

func newRenderedItem(item models.ToolbarItem, rc *RenderContext, depth int, groupUUID string) RenderedItem {
	icon := rc.iconFor(item.Icon)
	if icon == "" && item.Icon != "" {
		logger.Debug("Unknown icon", "icon", item.Icon, "item", item.UUID)
	}
	vis := item.Visibility.For(rc.Platform)
	return RenderedItem{
		UUID:       item.UUID,
		Type:       item.Type,
		Label:      item.Label,
		Tooltip:    item.Tooltip,
		Link:       item.Link,
		Icon:       icon,
		Target:     item.Target,
		RawLabel:   item.Label,
		RawTooltip: item.Tooltip,
		RawLink:    item.Link,
		Visibility: item.Visibility,
		HideIcon:   vis.HideIcon,
		HideLabel:  vis.HideLabel,
		GroupUUID:  groupUUID,
		Depth:      depth,
	}
}

// resolveItems expands variables in every item concurrently.
// A failed resolution keeps the raw text; it never fails the render.
func resolveItems(ctx context.Context, items []RenderedItem, rc *RenderContext) error {
	if rc.Variables == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveLimit)

	for i := range items {
		it := &items[i]
		if !it.hasVariables(rc) {
			continue
		}
		g.Go(func() error {
			it.Label = resolveText(gctx, rc, it.RawLabel)
			it.Tooltip = resolveText(gctx, rc, it.RawTooltip)
			it.Link = resolveText(gctx, rc, it.RawLink)
			return gctx.Err()
		})
	}
	return g.Wait()
}

func resolveText(ctx context.Context, rc *RenderContext, s string) string {
	if !rc.hasVariables(s) {
		return s
	}
	out, err := rc.Variables.Resolve(ctx, s, rc.File)
	if err != nil {
		logger.LogErr(err, "failed to resolve variables", "text", s)
		return s
	}
	return out
}

// finishItem derives the hidden and disabled states once text is resolved
func finishItem(it *RenderedItem, rc *RenderContext) {
	it.EmptyLink = it.Type.HasLink() && rc.hasVariables(it.RawLink) && strings.TrimSpace(it.Link) == ""

	labelGone := rc.hasVariables(it.RawLabel) && strings.TrimSpace(it.Label) == "" && (it.Icon == "" || it.HideIcon)
	it.Hidden = (it.HideIcon && it.HideLabel) || it.EmptyLink || labelGone

	it.Disabled = it.Type == models.ItemCommand && !rc.commandAvailable(it.Link)
}
