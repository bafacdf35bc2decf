package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"gacha-backend/internal/components/telemetry"
	"gacha-backend/internal/scrapers/fandom"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	galleryMember *string
	galleryGroup  *string
	galleryMax    *int
	galleryJson   *bool
)

func init() {
	galleryMember = galleryCmd.Flags().String("member", "", "The member whose gallery is fetched.")
	galleryGroup = galleryCmd.Flags().String("group", "TWICE", "The group the member belongs to.")
	galleryMax = galleryCmd.Flags().Int("max", 10, "The maximum number of images to return.")
	galleryJson = galleryCmd.Flags().Bool("json", false, "Print the result as json instead of a table.")
	galleryCmd.MarkFlagRequired("member")
	rootCmd.AddCommand(galleryCmd)
}

type galleryFetcher interface {
	FetchGallery(ctx context.Context, memberName, groupName string, maxPhotos int) fandom.Result
}

func renderGallery(out io.Writer, result fandom.Result) {
	summary := newTable(out)
	summary.AppendRows([]table.Row{
		{"Source", result.SourceURL},
		{"Total found", result.TotalFound},
		{"Sections scraped", result.SectionsScraped},
		{"Selected", len(result.Images)},
	})
	summary.Render()

	images := newTable(out)
	images.AppendHeader(table.Row{"#", "Section", "Alt", "URL"})
	for i, img := range result.Images {
		images.AppendRow(table.Row{i + 1, img.SourceSection, img.AltText, img.URL})
	}
	images.Render()
}

// runGallery prints the result of one fetch, a failed fetch is printed and then returned as an
// error.
func runGallery(ctx context.Context, out io.Writer, fetcher galleryFetcher, member, group string, maxPhotos int, asJson bool) error {
	result := fetcher.FetchGallery(ctx, member, group, maxPhotos)

	if asJson {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		err := encoder.Encode(result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	} else {
		renderGallery(out, result)
	}

	if !result.Success {
		return fmt.Errorf("fetch gallery: %w", errors.New(result.Error))
	}
	slog.Debug("gallery fetched", "url", result.SourceURL, "images", len(result.Images))
	return nil
}

var galleryCmd = &cobra.Command{
	Use:   "gallery --member <name> [--group <group>] [--max <n>] [--json]",
	Short: "Fetches a sample of a member's gallery images from the fan wiki.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fetcher := fandom.NewFetcher(fandom.FetcherOptions{
			Tel:               telemetry.SlogAPI{},
			Timeout:           config.Fetcher.Timeout(),
			SectionDelay:      config.Fetcher.SectionDelay(),
			RequestsPerSecond: config.Fetcher.RequestsPerSecond,
			CloudflareBypass:  config.Fetcher.CloudflareBypass,
		})
		defer fetcher.Close()

		return runGallery(
			cmd.Context(),
			cmd.OutOrStdout(),
			fetcher,
			*galleryMember,
			*galleryGroup,
			*galleryMax,
			*galleryJson,
		)
	},
}
