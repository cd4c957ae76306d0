package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"quipcup/models"
)

var ErrMalformedDocument = errors.New("malformed tournament document")

// DefaultTree is the default document as a generic JSON tree.
func DefaultTree() map[string]any {
	tree, err := toTree(models.NewTournament())
	if err != nil {
		panic(fmt.Sprintf("default document does not encode: %v", err))
	}
	return tree
}

// Decode merges raw over the defaults and decodes the result. Whatever
// cannot be used is replaced by defaults; the error only reports that this
// happened, the returned document is always usable.
func Decode(raw []byte) (models.Tournament, error) {
	if len(raw) == 0 {
		return models.NewTournament(), nil
	}
	var overlay map[string]any
	if err := json.Unmarshal(raw, &overlay); err != nil {
		return models.NewTournament(), fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return FromTree(overlay)
}

// FromTree is Decode for an already parsed payload. A top-level field whose
// value has the wrong shape keeps its default; the rest of the payload is
// still used.
func FromTree(overlay map[string]any) (models.Tournament, error) {
	merged := Merge(DefaultTree(), overlay)
	doc, err := decodeTree(merged)
	if err != nil {
		accepted := DefaultTree()
		for k, v := range overlay {
			candidate := Merge(accepted, map[string]any{k: v})
			if _, err := decodeTree(candidate); err == nil {
				accepted = candidate
			}
		}
		if doc, err = decodeTree(accepted); err != nil {
			return models.NewTournament(), fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
	}
	doc.Normalize()
	return doc, nil
}

func decodeTree(tree map[string]any) (models.Tournament, error) {
	var doc models.Tournament
	body, err := json.Marshal(tree)
	if err != nil {
		return doc, err
	}
	err = json.Unmarshal(body, &doc)
	return doc, err
}

func Encode(doc models.Tournament) ([]byte, error) {
	return json.Marshal(doc)
}

func toTree(doc models.Tournament) (map[string]any, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}
