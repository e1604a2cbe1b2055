package character

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Character is a single record of the dataset.
type Character struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Height       float64  `json:"height,omitempty"`
	Mass         float64  `json:"mass,omitempty"`
	Gender       string   `json:"gender,omitempty"`
	Homeworld    string   `json:"homeworld,omitempty"`
	Species      string   `json:"species,omitempty"`
	Image        string   `json:"image,omitempty"`
	Wiki         string   `json:"wiki,omitempty"`
	Born         string   `json:"born,omitempty"`
	Died         string   `json:"died,omitempty"`
	Affiliations []string `json:"affiliations,omitempty"`
	Masters      []string `json:"masters,omitempty"`
	Apprentices  []string `json:"apprentices,omitempty"`

	// Attributes holds the raw record, including fields without a typed counterpart.
	Attributes map[string]any `json:"-"`
}

// Attribute is a display pair for fields outside the typed set.
type Attribute struct {
	Key   string
	Value string
}

var typedFields = map[string]struct{}{
	"id": {}, "name": {}, "height": {}, "mass": {}, "gender": {},
	"homeworld": {}, "species": {}, "image": {}, "wiki": {}, "born": {},
	"died": {}, "affiliations": {}, "masters": {}, "apprentices": {},
}

// UnmarshalJSON decodes a dataset record. Several upstream fields change
// JSON type between records (homeworld is a string or a list, born is a
// number or a string), so values are coerced instead of rejected.
func (c *Character) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("record is null")
	}

	id, ok := raw["id"].(float64)
	if !ok {
		return fmt.Errorf("record has no numeric id")
	}
	name, ok := raw["name"].(string)
	if !ok {
		return fmt.Errorf("record has no name")
	}

	*c = Character{
		ID:           int(id),
		Name:         name,
		Height:       numberOf(raw["height"]),
		Mass:         numberOf(raw["mass"]),
		Gender:       stringOf(raw["gender"]),
		Homeworld:    stringOf(raw["homeworld"]),
		Species:      stringOf(raw["species"]),
		Image:        stringOf(raw["image"]),
		Wiki:         stringOf(raw["wiki"]),
		Born:         stringOf(raw["born"]),
		Died:         stringOf(raw["died"]),
		Affiliations: stringsOf(raw["affiliations"]),
		Masters:      stringsOf(raw["masters"]),
		Apprentices:  stringsOf(raw["apprentices"]),
		Attributes:   raw,
	}
	return nil
}

// Extra returns the untyped attributes sorted by key.
func (c *Character) Extra() []Attribute {
	if c == nil {
		return nil
	}
	out := make([]Attribute, 0, len(c.Attributes))
	for key, value := range c.Attributes {
		if _, ok := typedFields[key]; ok {
			continue
		}
		rendered := stringOf(value)
		if rendered == "" {
			continue
		}
		out = append(out, Attribute{Key: key, Value: rendered})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func numberOf(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func stringOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case []any:
		return strings.Join(stringsOf(s), ", ")
	default:
		return fmt.Sprint(s)
	}
}

func stringsOf(v any) []string {
	switch s := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str := stringOf(item); str != "" {
				out = append(out, str)
			}
		}
		return out
	default:
		if str := stringOf(s); str != "" {
			return []string{str}
		}
		return nil
	}
}
