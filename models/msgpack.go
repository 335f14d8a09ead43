package models

import (
	"github.com/rohanthewiz/serr"
	"github.com/vmihailenco/msgpack/v5"
)

// EncodeDocument packs a settings document for blob storage.
//
// The database keeps the document as msgpack rather than JSON text: it is
// never queried by column, only loaded whole, and msgpack keeps it compact.
func EncodeDocument(doc Document) ([]byte, error) {
	if doc == nil {
		return nil, nil
	}
	b, err := msgpack.Marshal(map[string]any(doc))
	if err != nil {
		return nil, serr.Wrap(err, "failed to msgpack encode settings document")
	}
	return b, nil
}

// DecodeDocument unpacks a blob written by EncodeDocument.
// Returns nil for empty input.
func DecodeDocument(b []byte) (Document, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var doc map[string]any
	if err := msgpack.Unmarshal(b, &doc); err != nil {
		return nil, serr.Wrap(err, "failed to unmarshal msgpack settings document")
	}
	return Document(doc), nil
}

// cloneSettings deep-copies settings so callers never share slices with the
// store
func cloneSettings(s *Settings) (*Settings, error) {
	b, err := msgpack.Marshal(s)
	if err != nil {
		return nil, serr.Wrap(err, "failed to clone settings")
	}
	out := &Settings{}
	if err := msgpack.Unmarshal(b, out); err != nil {
		return nil, serr.Wrap(err, "failed to clone settings")
	}
	out.applyDefaults()
	return out, nil
}

// cloneToolbar deep-copies a single toolbar
func cloneToolbar(tb *Toolbar) (*Toolbar, error) {
	b, err := msgpack.Marshal(tb)
	if err != nil {
		return nil, serr.Wrap(err, "failed to clone toolbar")
	}
	out := &Toolbar{}
	if err := msgpack.Unmarshal(b, out); err != nil {
		return nil, serr.Wrap(err, "failed to clone toolbar")
	}
	if out.Items == nil {
		out.Items = []ToolbarItem{}
	}
	return out, nil
}
