package cardtext

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/titanous/json5"
)

// Range is an inclusive integer range.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type TierTable struct {
	Descriptions []string `json:"descriptions"`
	Attacks      []string `json:"attacks"`
	Damage       Range    `json:"damage"`
	HP           Range    `json:"hp"`
	Roles        []string `json:"roles"`
	Traits       []string `json:"traits"`
	Achievements []string `json:"achievements"`
}

type SymbolMapping struct {
	Keyword string `json:"keyword"`
	Symbol  string `json:"symbol"`
}

type MemberProfile struct {
	Roles        []string `json:"roles"`
	Traits       []string `json:"traits"`
	Achievements []string `json:"achievements"`
}

// RichPhrasing holds the extra sub-choices of the SAR/SR enhanced wording.
type RichPhrasing struct {
	Openers    []string `json:"openers"`
	Flourishes []string `json:"flourishes"`
	Impacts    []string `json:"impacts"`
	Legacies   []string `json:"legacies"`
}

// Tables is the full set of template pools, keyed by rarity name.
type Tables struct {
	DefaultSymbol string                   `json:"default_symbol"`
	Symbols       []SymbolMapping          `json:"symbols"`
	Tiers         map[string]TierTable     `json:"tiers"`
	Rich          RichPhrasing             `json:"rich"`
	Members       map[string]MemberProfile `json:"members"`
}

// Tier returns the table for r, the Common table if r has none.
func (t Tables) Tier(r Rarity) TierTable {
	table, ok := t.Tiers[r.String()]
	if ok {
		return table
	}
	return t.Tiers[Common.String()]
}

func (r Range) validate() error {
	if r.Min > r.Max {
		return fmt.Errorf("min %d is greater than max %d", r.Min, r.Max)
	}
	return nil
}

// Validate checks the invariants the generator relies on: a Common tier exists, every tier has
// descriptions and attacks to draw from, and every range is ordered.
func (t Tables) Validate() error {
	common, ok := t.Tiers[Common.String()]
	if !ok {
		return errors.New("missing Common tier")
	}
	if len(common.Roles) == 0 || len(common.Traits) == 0 || len(common.Achievements) == 0 {
		return errors.New("tier Common: needs roles, traits and achievements")
	}

	var errs []error
	for name, tier := range t.Tiers {
		if len(tier.Descriptions) == 0 {
			errs = append(errs, fmt.Errorf("tier %s: no descriptions", name))
		}
		if len(tier.Attacks) == 0 {
			errs = append(errs, fmt.Errorf("tier %s: no attacks", name))
		}
		if err := tier.Damage.validate(); err != nil {
			errs = append(errs, fmt.Errorf("tier %s: damage: %w", name, err))
		}
		if err := tier.HP.validate(); err != nil {
			errs = append(errs, fmt.Errorf("tier %s: hp: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// ParseTables decodes a JSON5 table document and validates it.
func ParseTables(data []byte) (Tables, error) {
	var tables Tables
	err := json5.Unmarshal(data, &tables)
	if err != nil {
		return Tables{}, fmt.Errorf("decode tables: %w", err)
	}
	err = tables.Validate()
	if err != nil {
		return Tables{}, fmt.Errorf("validate tables: %w", err)
	}
	return tables, nil
}

//go:embed tables.json5
var defaultTablesSource []byte

var defaultTables = sync.OnceValue(func() Tables {
	tables, err := ParseTables(defaultTablesSource)
	if err != nil {
		panic(fmt.Sprintf("embedded card tables are invalid: %s", err))
	}
	return tables
})

// DefaultTables returns the built-in template pools. They are parsed once and must not be mutated.
func DefaultTables() Tables {
	return defaultTables()
}
