// Package cardtext assembles flavor text for trading cards out of fixed template pools.
package cardtext

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
)

const (
	groupPlaceholder = "{group}"
	bullet           = "• "
)

// Generator draws card descriptions from a set of Tables. It is safe for concurrent use, draws
// are serialized on the injected random source.
type Generator struct {
	tables Tables

	mutex sync.Mutex
	rng   *rand.Rand
}

// NewGenerator creates a Generator over validated tables. `rng` must not be used elsewhere while
// the generator is alive, math/rand sources are not safe for concurrent use.
func NewGenerator(rng *rand.Rand, tables Tables) (*Generator, error) {
	if rng == nil {
		return nil, errors.New("nil random source")
	}
	err := tables.Validate()
	if err != nil {
		return nil, err
	}
	return &Generator{tables: tables, rng: rng}, nil
}

// Generate returns the description of a card in the given style. Unknown styles behave like
// StylePokemon and unknown rarities like Common.
func (g *Generator) Generate(memberName, groupName string, rarity Rarity, style Style) string {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	switch style {
	case StylePokemonStats:
		return g.pokemon(groupName, rarity, true)
	case StyleEnhanced:
		return g.enhanced(memberName, groupName, rarity)
	default:
		return g.pokemon(groupName, rarity, false)
	}
}

func (g *Generator) pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[g.rng.Intn(len(pool))]
}

func (g *Generator) between(r Range) int {
	return r.Min + g.rng.Intn(r.Max-r.Min+1)
}

func (g *Generator) pokemon(groupName string, rarity Rarity, withHP bool) string {
	tier := g.tables.Tier(rarity)

	description := strings.ReplaceAll(g.pick(tier.Descriptions), groupPlaceholder, groupName)
	attack := g.pick(tier.Attacks)
	damage := g.between(tier.Damage)

	lines := []string{
		description,
		fmt.Sprintf("%s %s - %d DMG", g.tables.Symbol(attack), attack, damage),
	}
	if withHP {
		lines = append(lines, fmt.Sprintf("HP: %d", g.between(tier.HP)))
	}
	return strings.Join(lines, "\n")
}

// Symbol returns the symbol of the first keyword contained in the attack name, ignoring case.
func (t Tables) Symbol(attack string) string {
	lowered := strings.ToLower(attack)
	for _, m := range t.Symbols {
		if m.Keyword == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(m.Keyword)) {
			return m.Symbol
		}
	}
	return t.DefaultSymbol
}

// profile resolves the role/trait/achievement pools of a member: the member's own lists when known,
// then the tier defaults, then the Common defaults.
func (t Tables) profile(memberName string, rarity Rarity) MemberProfile {
	tier := t.Tier(rarity)
	common := t.Tier(Common)
	known := t.Members[memberName]

	firstNonEmpty := func(pools ...[]string) []string {
		for _, p := range pools {
			if len(p) > 0 {
				return p
			}
		}
		return nil
	}

	return MemberProfile{
		Roles:        firstNonEmpty(known.Roles, tier.Roles, common.Roles),
		Traits:       firstNonEmpty(known.Traits, tier.Traits, common.Traits),
		Achievements: firstNonEmpty(known.Achievements, tier.Achievements, common.Achievements),
	}
}

func (g *Generator) enhanced(memberName, groupName string, rarity Rarity) string {
	profile := g.tables.profile(memberName, rarity)

	role := g.pick(profile.Roles)
	trait := g.pick(profile.Traits)
	achievement := g.pick(profile.Achievements)

	var lines []string
	switch rarity {
	case SAR, SR:
		rich := g.tables.Rich
		lines = []string{
			fmt.Sprintf(
				"%s, the %s %s of %s, %s",
				memberName, withFallback(g.pick(rich.Openers), "Celebrated"), role, groupName,
				withFallback(g.pick(rich.Flourishes), "shining on every stage"),
			),
			fmt.Sprintf(
				"Known for a %s presence that %s",
				trait,
				withFallback(g.pick(rich.Impacts), "captivates every crowd"),
			),
			fmt.Sprintf(
				"%s, %s",
				achievement,
				withFallback(g.pick(rich.Legacies), "a highlight of the era"),
			),
		}
	default:
		lines = []string{
			fmt.Sprintf("%s, %s of %s", memberName, role, groupName),
			fmt.Sprintf("Known for being %s, loved by fans", trait),
			fmt.Sprintf("Achievement: %s", achievement),
		}
	}

	for i := range lines {
		lines[i] = bullet + lines[i]
	}
	return strings.Join(lines, "\n")
}

func withFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
