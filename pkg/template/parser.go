// parser.go — Card JSON parsing and example generation.
package template

import (
	"encoding/json"
	"fmt"
)

// ParseCard decodes a card spec. Malformed JSON is not fatal: the card falls
// back to all defaults and a warning says why.
func ParseCard(data []byte) (*CardSpec, []string) {
	var spec CardSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return &CardSpec{Template: string(DefaultTemplate)},
			[]string{fmt.Sprintf("malformed card.json: %v — using all defaults", err)}
	}
	return &spec, nil
}

// MarshalCard encodes spec as indented JSON.
func MarshalCard(spec *CardSpec) ([]byte, error) {
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return data, nil
}

// GetExampleJSON returns a sample card.json for festivecard init.
func GetExampleJSON() string {
	return `{
  "template": "dashain2",
  "name": "Aarav",
  "wish": null,
  "language": "en",
  "photo": "",
  "font": {
    "family": "Arial",
    "size": 36,
    "color": "#ffffff",
    "bold": true,
    "italic": false
  },
  "positions": {},
  "canvas": { "preset": "card" }
}`
}
