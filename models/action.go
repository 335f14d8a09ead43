package models

import "github.com/rohanthewiz/serr"

// Action is the resolved behavior of a toolbar item.
// The set of implementations is closed: each item type maps to exactly one
// variant, and switches over Action must handle every variant.
type Action interface {
	isAction()
}

// CommandAction runs a registered host command
type CommandAction struct {
	CommandID string
}

// FileAction opens a vault file or reveals a folder
type FileAction struct {
	Path   string
	Target string
}

// URIAction opens an external URI
type URIAction struct {
	URI    string
	Target string
}

// MenuAction opens another toolbar as a menu
type MenuAction struct {
	ToolbarUUID string
}

// GroupAction splices another toolbar's items in place at render time
type GroupAction struct {
	ToolbarUUID string
}

// SpacerAction is a separator, break or spreader
type SpacerAction struct {
	Kind ItemType
}

// ScriptAction forwards its config to a script adapter
type ScriptAction struct {
	Engine ItemType
	Config ScriptConfig
}

func (CommandAction) isAction() {}
func (FileAction) isAction()    {}
func (URIAction) isAction()     {}
func (MenuAction) isAction()    {}
func (GroupAction) isAction()   {}
func (SpacerAction) isAction()  {}
func (ScriptAction) isAction()  {}

// Action projects the item onto its variant, using link as the already
// variable-resolved link (pass item.Link when no resolution is needed)
func (it *ToolbarItem) Action(link string) (Action, error) {
	switch it.Type {
	case ItemCommand:
		return CommandAction{CommandID: link}, nil
	case ItemFile:
		return FileAction{Path: link, Target: it.Target}, nil
	case ItemURI:
		return URIAction{URI: link, Target: it.Target}, nil
	case ItemMenu:
		return MenuAction{ToolbarUUID: link}, nil
	case ItemGroup:
		return GroupAction{ToolbarUUID: link}, nil
	case ItemSeparator, ItemBreak, ItemSpreader:
		return SpacerAction{Kind: it.Type}, nil
	case ItemDataview, ItemJavaScript, ItemJsEngine, ItemTemplater:
		cfg := ScriptConfig{}
		if it.ScriptConfig != nil {
			cfg = *it.ScriptConfig
		}
		return ScriptAction{Engine: it.Type, Config: cfg}, nil
	}
	return nil, serr.New("unknown item type: " + string(it.Type))
}
