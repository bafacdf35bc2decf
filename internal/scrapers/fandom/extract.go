package fandom

import (
	"gacha-backend/pkg/htmlutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// maxImagesPerSection caps how many images a single section may contribute.
const maxImagesPerSection = 50

// Strategy is one way of locating candidate <img> elements on a gallery page. Strategies are
// independent, their candidates are unioned and then go through the same filter.
type Strategy interface {
	Name() string
	Candidates(doc *goquery.Document) *goquery.Selection
}

// SelectorStrategy finds candidates with a CSS selector.
type SelectorStrategy struct {
	Label    string
	Selector string
}

func (s SelectorStrategy) Name() string {
	return s.Label
}

func (s SelectorStrategy) Candidates(doc *goquery.Document) *goquery.Selection {
	return doc.Find(s.Selector)
}

func hostAttributeSelector() string {
	var selectors []string
	for _, host := range imageHosts {
		selectors = append(
			selectors,
			`img[src*="`+host+`"]`,
			`img[data-src*="`+host+`"]`,
		)
	}
	return strings.Join(selectors, ", ")
}

// DefaultStrategies returns the gallery item, generic gallery container and image host strategies.
func DefaultStrategies() []Strategy {
	return []Strategy{
		SelectorStrategy{
			Label:    "gallery-item",
			Selector: ".wikia-gallery-item img, .gallerybox img",
		},
		SelectorStrategy{
			Label:    "gallery-container",
			Selector: ".gallery img, .thumb img, img.thumbimage",
		},
		SelectorStrategy{
			Label:    "image-host",
			Selector: hostAttributeSelector(),
		},
	}
}

// unionCandidates returns the candidates of every strategy in first-seen order, each node once.
// The document's own selection is left untouched.
func unionCandidates(doc *goquery.Document, strategies []Strategy) *goquery.Selection {
	var nodes []*html.Node
	for _, s := range strategies {
		nodes = append(nodes, s.Candidates(doc).Nodes...)
	}
	return doc.FindNodes(nodes...)
}

// imageSource returns the src of an <img>, or its lazy-load data-src when src is missing or just
// a data: placeholder.
func imageSource(img *goquery.Selection) string {
	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src == "" || strings.HasPrefix(src, "data:") {
		src = strings.TrimSpace(img.AttrOr("data-src", ""))
	}
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	return src
}

func altText(img *goquery.Selection) string {
	alt := htmlutil.CleanText(img.AttrOr("alt", ""))
	if alt != "" {
		return alt
	}
	caption := img.Closest(".wikia-gallery-item, .gallerybox").
		Find(".lightbox-caption, .gallerytext").
		First()
	if len(caption.Nodes) == 0 {
		return ""
	}
	return htmlutil.GetCleanText(caption.Nodes[0])
}

// extractImages runs every strategy over the page and returns the valid, normalized images found,
// deduplicated by normalized url and capped at maxImagesPerSection.
func extractImages(doc *goquery.Document, strategies []Strategy, section string) []GalleryImage {
	seen := map[string]bool{}
	var images []GalleryImage

	unionCandidates(doc, strategies).EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := imageSource(img)
		if !IsValidImage(src) {
			return true
		}
		normalized := NormalizeImageURL(src)
		if seen[normalized] {
			return true
		}
		seen[normalized] = true

		images = append(images, GalleryImage{
			URL:           normalized,
			AltText:       altText(img),
			SourceSection: section,
		})
		return len(images) < maxImagesPerSection
	})

	return images
}
