package core

import (
	"bytes"
	"encoding/json"
)

const contributorsPart = "contributors_part"

// Contributors holds the content of contributor blocks which have been removed from a document, keyed by block id.
type Contributors map[string]json.RawMessage

func (c Contributors) clone() Contributors {
	var result = make(Contributors, len(c))
	for id, content := range c {
		result[id] = append(json.RawMessage(nil), content...)
	}
	return result
}

// decodeTree decodes a document content tree. Numbers are kept as json.Number so they survive unchanged.
func decodeTree(content json.RawMessage) (map[string]interface{}, error) {
	var tree = make(map[string]interface{})
	if len(bytes.TrimSpace(content)) == 0 {
		return tree, nil
	}
	var dec = json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// contributorParts returns the top-level parts of the tree which are contributor blocks with a string id.
func contributorParts(tree map[string]interface{}) map[string]map[string]interface{} {
	var result = make(map[string]map[string]interface{})
	parts, _ := tree["content"].([]interface{})
	for _, p := range parts {
		part, ok := p.(map[string]interface{})
		if !ok || part["type"] != contributorsPart {
			continue
		}
		attrs, ok := part["attrs"].(map[string]interface{})
		if !ok {
			continue
		}
		id, ok := attrs["id"].(string)
		if !ok {
			continue
		}
		result[id] = part
	}
	return result
}

// RedactContributors empties every contributor block of the content and returns the removed content by block id.
// The input is not modified.
func RedactContributors(content json.RawMessage) (json.RawMessage, Contributors, error) {
	tree, err := decodeTree(content)
	if err != nil {
		return nil, nil, err
	}
	var removed = make(Contributors)
	for id, part := range contributorParts(tree) {
		blockContent, ok := part["content"]
		if !ok {
			continue
		}
		raw, err := json.Marshal(blockContent)
		if err != nil {
			return nil, nil, err
		}
		removed[id] = raw
		part["content"] = []interface{}{}
	}
	result, err := json.Marshal(tree)
	if err != nil {
		return nil, nil, err
	}
	return result, removed, nil
}

// RestoreContributors puts the removed content back into the contributor blocks with matching ids.
// The input is not modified.
func RestoreContributors(content json.RawMessage, removed Contributors) (json.RawMessage, error) {
	tree, err := decodeTree(content)
	if err != nil {
		return nil, err
	}
	for id, part := range contributorParts(tree) {
		if raw, ok := removed[id]; ok {
			part["content"] = raw
		}
	}
	return json.Marshal(tree)
}

// transformContributors applies the contributor handling of a stage transition.
// Entering external review hides the contributors. Leaving it shows them again.
// Otherwise content and side table are carried over.
func transformContributors(content json.RawMessage, side Contributors, oldStage, newStage int) (json.RawMessage, Contributors, error) {
	switch {
	case oldStage < 3 && newStage == 3:
		return RedactContributors(content)
	case oldStage == 3 && newStage > 3 && len(side) > 0:
		restored, err := RestoreContributors(content, side)
		if err != nil {
			return nil, nil, err
		}
		return restored, Contributors{}, nil
	default:
		return append(json.RawMessage(nil), content...), side.clone(), nil
	}
}
