package cardtext

import "strings"

// Rarity is the quality tier of a card, ordered from lowest to highest value.
type Rarity int

const (
	Common Rarity = iota
	Rare
	DR
	SR
	SAR
)

var rarityNames = []string{
	Common: "Common",
	Rare:   "Rare",
	DR:     "DR",
	SR:     "SR",
	SAR:    "SAR",
}

// Rarities lists every known tier from lowest to highest.
func Rarities() []Rarity {
	return []Rarity{Common, Rare, DR, SR, SAR}
}

func (r Rarity) Valid() bool {
	return r >= Common && r <= SAR
}

func (r Rarity) String() string {
	if !r.Valid() {
		return "Unknown"
	}
	return rarityNames[r]
}

// ParseRarity maps a case-insensitive tier name onto a Rarity. Unknown names resolve to Common with
// ok = false.
func ParseRarity(s string) (rarity Rarity, ok bool) {
	s = strings.TrimSpace(s)
	for _, r := range Rarities() {
		if strings.EqualFold(r.String(), s) {
			return r, true
		}
	}
	return Common, false
}

// Style selects the output format of Generator.Generate.
type Style string

const (
	StylePokemon      Style = "pokemon"
	StylePokemonStats Style = "pokemon_stats"
	StyleEnhanced     Style = "enhanced"
)
