package outlet

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

type Outlets struct {
	Items []*Outlet
}

// Outlet is a catalog record. Tags follow the catalog column names.
type Outlet struct {
	ID            string `json:"id,omitempty" mapstructure:"id"`
	Name          string `json:"Outlet Name" mapstructure:"Outlet Name"`
	URL           string `json:"URL,omitempty" mapstructure:"URL"`
	EditorContact string `json:"Editor Contact,omitempty" mapstructure:"Editor Contact"`
	Keywords      string `json:"Keywords,omitempty" mapstructure:"Keywords"`
	Audience      string `json:"Audience,omitempty" mapstructure:"Audience"`
	SectionName   string `json:"Section Name,omitempty" mapstructure:"Section Name"`
	Guidelines    string `json:"Guidelines,omitempty" mapstructure:"Guidelines"`
	PitchTips     string `json:"Pitch Tips,omitempty" mapstructure:"Pitch Tips"`
	Prestige      string `json:"Prestige,omitempty" mapstructure:"Prestige"`
	AIPartnered   bool   `json:"AI Partnered,omitempty" mapstructure:"AI Partnered"`
	FeedURL       string `json:"Feed URL,omitempty" mapstructure:"Feed URL"`
}

// Decode converts raw catalog records into outlets. Numbers, "yes"/"no" and
// booleans are all accepted for the AI Partnered column.
func Decode(records []map[string]any) (*Outlets, error) {
	outlets := &Outlets{Items: make([]*Outlet, 0, len(records))}

	for i, record := range records {
		o := &Outlet{}
		cfg := &mapstructure.DecoderConfig{
			DecodeHook:       yesNoHook,
			WeaklyTypedInput: true,
			Result:           o,
		}

		decoder, err := mapstructure.NewDecoder(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating decoder: %w", err)
		}
		if err := decoder.Decode(record); err != nil {
			return nil, fmt.Errorf("decoding outlet record %d: %w", i, err)
		}

		o.Name = strings.TrimSpace(o.Name)
		if o.Name == "" {
			return nil, fmt.Errorf("outlet record %d has no name", i)
		}
		outlets.Items = append(outlets.Items, o)
	}

	return outlets, nil
}

func yesNoHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}

	switch strings.ToLower(strings.TrimSpace(data.(string))) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0", "":
		return false, nil
	default:
		return data, nil
	}
}

// Key identifies the outlet in feedback and article records.
func (o *Outlet) Key() string {
	if o.ID != "" {
		return o.ID
	}
	return o.Name
}

// Text is the lowercased concatenation of all editorial fields.
func (o *Outlet) Text() string {
	return strings.ToLower(strings.Join([]string{
		o.Name, o.Keywords, o.Audience, o.SectionName, o.Guidelines, o.PitchTips,
	}, " "))
}

func (o *Outlets) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Items)
}

// FindByID looks an outlet up by ID, falling back to its name.
func (o *Outlets) FindByID(id string) *Outlet {
	for _, item := range o.Items {
		if item.ID == id {
			return item
		}
	}
	for _, item := range o.Items {
		if item.ID == "" && item.Name == id {
			return item
		}
	}
	return nil
}

func (o *Outlets) Names() []string {
	names := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		names = append(names, item.Name)
	}
	return names
}

// ExcludeFunc removes outlets for which drop returns true and returns their keys.
// Catalog order is preserved.
func (o *Outlets) ExcludeFunc(drop func(*Outlet) bool) []string {
	var excluded []string
	kept := o.Items[:0]
	for _, item := range o.Items {
		if drop(item) {
			excluded = append(excluded, item.Key())
			continue
		}
		kept = append(kept, item)
	}
	o.Items = kept

	return excluded
}

// Clone returns a shallow copy of the collection so filters can drop items
// without touching the caller's slice.
func (o *Outlets) Clone() *Outlets {
	if o == nil {
		return &Outlets{}
	}
	items := make([]*Outlet, len(o.Items))
	copy(items, o.Items)
	return &Outlets{Items: items}
}
