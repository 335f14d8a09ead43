package views

import (
	"fmt"
	"html"

	"github.com/rohanthewiz/element"
)

// previewStyles is the minimal CSS the preview page needs to make the
// structural classes visible. Real styling belongs to the host theme.
const previewStyles = `
body { font-family: sans-serif; margin: 2rem; }
.cg-note-toolbar-container ul { display: flex; gap: .5rem; list-style: none; padding: 0; }
.cg-note-toolbar-container li[data-spacer="break"] { flex-basis: 100%; }
.cg-note-toolbar-container li[data-spacer="spreader"] { flex-grow: 1; }
.cg-note-toolbar-container li[data-spacer="separator"] { border-left: 1px solid #999; }
.cg-note-toolbar-container .hide, .hide-on-desktop { display: none; }
.hide-icon-on-desktop .cg-note-toolbar-icon, .hide-label-on-desktop .cg-note-toolbar-item-label { display: none; }
.is-disabled { opacity: .4; }
.preview-meta { color: #777; font-size: .85rem; }
`

// PreviewPage wraps rendered toolbar markup in a standalone page.
// The page reloads itself whenever the settings change.
func PreviewPage(title string, body element.Component) string {
	b := element.NewBuilder()

	b.Html().R(
		b.Head().R(
			b.Meta("charset", "UTF-8"),
			b.Meta("viewport", "width=device-width, initial-scale=1.0"),
			b.Title().T(html.EscapeString(title)),
			b.Style().T(previewStyles),
		),
		b.Body().R(
			element.RenderComponents(b, body),

			// Re-render on settings changes
			b.Script().T(`
				if (typeof(EventSource) !== "undefined") {
					const evtSource = new EventSource("/events");
					evtSource.onmessage = function() { window.location.reload(); };
				}
			`),
		),
	)

	return b.String()
}

// ToolbarPreview shows a rendered toolbar above a short description of
// the note it was resolved for
type ToolbarPreview struct {
	NotePath string
	Element  *Element
	Reason   string
}

func (p ToolbarPreview) Render(b *element.Builder) (x any) {
	b.DivClass("preview").R(
		b.P("class", "preview-meta").R(
			b.Span().T(html.EscapeString(p.NotePath)),
			b.Wrap(func() {
				if p.Reason != "" {
					b.Span().F(" (%s)", html.EscapeString(p.Reason))
				}
			}),
		),
		b.Wrap(func() {
			if p.Element == nil {
				b.P("class", "preview-empty").T("No toolbar applies to this note")
				return
			}
			b.T(p.Element.HTML())
		}),
	)
	return
}

// CenterStyle is the inline style that horizontally centers a bottom
// toolbar of barWidth inside a view of viewWidth
func CenterStyle(viewWidth, barWidth int) string {
	if viewWidth <= 0 || barWidth <= 0 {
		return ""
	}
	left := (viewWidth - barWidth) / 2
	if left < 0 {
		left = 0
	}
	return fmt.Sprintf("left: %dpx", left)
}
