package status

// DefaultCompletion is the completion status assumed for names the catalog has
// no definition for.
const DefaultCompletion = "concluido"

// NeutralColor is used when a status has no configured color.
const NeutralColor = "#9CA3AF"

// Definition is a configured status.
type Definition struct {
	Name               string
	DisplayName        string
	Color              string
	IsCompletionStatus bool
	Position           int
}

// Label is the display form of a status.
type Label struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Catalog answers completion and display questions for status names. It is an
// immutable value; build a new one to pick up configuration changes.
type Catalog struct {
	defs  []Definition
	index map[string]Definition
}

// NewCatalog builds a catalog from definitions in display order.
func NewCatalog(defs []Definition) *Catalog {
	c := &Catalog{
		defs:  make([]Definition, len(defs)),
		index: make(map[string]Definition, len(defs)),
	}

	copy(c.defs, defs)

	for _, d := range defs {
		c.index[d.Name] = d
	}

	return c
}

// IsCompletion reports whether name is a completion status. Unconfigured names
// are compared against DefaultCompletion.
func (c *Catalog) IsCompletion(name string) bool {
	if c != nil {
		if d, ok := c.index[name]; ok {
			return d.IsCompletionStatus
		}
	}

	return name == DefaultCompletion
}

func (c *Catalog) Display(name string) Label {
	if c != nil {
		if d, ok := c.index[name]; ok {
			l := Label{Label: d.DisplayName, Color: d.Color}
			if l.Label == "" {
				l.Label = d.Name
			}

			if l.Color == "" {
				l.Color = NeutralColor
			}

			return l
		}
	}

	return Label{Label: name, Color: NeutralColor}
}

func (c *Catalog) Definitions() []Definition {
	if c == nil {
		return nil
	}

	out := make([]Definition, len(c.defs))
	copy(out, c.defs)

	return out
}
