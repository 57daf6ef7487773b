package jira

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ADFToText flattens a decoded rich-text value to plain text.
//
// nil yields "", a string is returned unchanged and a document tree
// (map[string]interface{}) is reduced depth-first: a node with a "text" key
// contributes that text, any other node contributes the non-empty
// contributions of its "content" children joined by single spaces. The
// result for a tree is trimmed. Node types and marks are not interpreted and
// anything malformed contributes nothing.
func ADFToText(v interface{}) string {
	switch doc := v.(type) {
	case nil:
		return ""
	case string:
		return doc
	case map[string]interface{}:
		return strings.TrimSpace(nodeText(doc))
	default:
		return ""
	}
}

func nodeText(v interface{}) string {
	node, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	if text, ok := node["text"]; ok {
		s, _ := text.(string)
		return s
	}

	children, _ := node["content"].([]interface{})
	parts := make([]string, 0, len(children))
	for _, child := range children {
		if s := nodeText(child); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// DescriptionText converts a raw description field (ADF document, JSON
// string or null) to plain text. Undecodable input yields "".
func DescriptionText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return ""
	}
	switch v.(type) {
	case float64, bool:
		// Scalars are kept as written.
		return string(trimmed)
	}
	return ADFToText(v)
}
