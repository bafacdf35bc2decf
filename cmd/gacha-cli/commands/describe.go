package commands

import (
	"fmt"
	"gacha-backend/internal/cardtext"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/antzucaro/matchr"
	"github.com/spf13/cobra"
)

var (
	describeMember *string
	describeGroup  *string
	describeRarity *string
	describeStyle  *string
	describeSeed   *int64
	describeTables *string
)

func init() {
	describeMember = describeCmd.Flags().String("member", "", "The member the card is for.")
	describeGroup = describeCmd.Flags().String("group", "TWICE", "The group the member belongs to.")
	describeRarity = describeCmd.Flags().String("rarity", "Common", "The rarity tier (Common, Rare, DR, SR, SAR).")
	describeStyle = describeCmd.Flags().String("style", string(cardtext.StylePokemon), "The output style (pokemon, pokemon_stats, enhanced).")
	describeSeed = describeCmd.Flags().Int64("seed", 0, "The random seed, 0 picks one from the clock.")
	describeTables = describeCmd.Flags().String("tables", "", "A json5 file replacing the built-in phrase tables.")
	describeCmd.MarkFlagRequired("member")
	rootCmd.AddCommand(describeCmd)
}

// closestRarity returns the tier name most similar to s.
func closestRarity(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))

	best := cardtext.Common.String()
	bestScore := -1.0
	for _, r := range cardtext.Rarities() {
		score := matchr.JaroWinkler(s, strings.ToUpper(r.String()), false)
		if score > bestScore {
			best = r.String()
			bestScore = score
		}
	}
	return best
}

func loadTables(path string) (cardtext.Tables, error) {
	if path == "" {
		return cardtext.DefaultTables(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cardtext.Tables{}, err
	}
	return cardtext.ParseTables(data)
}

var describeCmd = &cobra.Command{
	Use:   "describe --member <name> [--group <group>] [--rarity <tier>] [--style <style>] [--seed <n>]",
	Short: "Generates the flavor text of a card.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rarity, ok := cardtext.ParseRarity(*describeRarity)
		if !ok {
			slog.Warn(
				"unknown rarity, using Common",
				"rarity", *describeRarity,
				"did_you_mean", closestRarity(*describeRarity),
			)
		}

		tables, err := loadTables(*describeTables)
		if err != nil {
			return fmt.Errorf("load phrase tables: %w", err)
		}

		seed := *describeSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		generator, err := cardtext.NewGenerator(rand.New(rand.NewSource(seed)), tables)
		if err != nil {
			return fmt.Errorf("create generator: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), generator.Generate(*describeMember, *describeGroup, rarity, cardtext.Style(*describeStyle)))
		return nil
	},
}
