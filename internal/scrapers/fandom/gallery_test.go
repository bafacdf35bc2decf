package fandom

import (
	"context"
	"errors"
	"fmt"
	"gacha-backend/internal/components/chrono"
	"gacha-backend/internal/components/telemetry"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

type fakePage struct {
	status int
	body   string
}

// fakeWiki serves pages keyed by the url fragment, which is how sections are addressed. Sections
// without a page fail like an unreachable host.
type fakeWiki struct {
	mutex     sync.Mutex
	pages     map[string]fakePage
	requested []string
	urls      []string
}

func (w *fakeWiki) RoundTrip(req *http.Request) (*http.Response, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.requested = append(w.requested, req.URL.Fragment)
	w.urls = append(w.urls, req.URL.String())

	page, ok := w.pages[req.URL.Fragment]
	if !ok {
		return nil, errors.New("dial tcp: connection refused")
	}
	return &http.Response{
		StatusCode: page.status,
		Status:     fmt.Sprintf("%d %s", page.status, http.StatusText(page.status)),
		Header:     http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:       io.NopCloser(strings.NewReader(page.body)),
		Request:    req,
	}, nil
}

func imageUrl(section string, i int) string {
	return fmt.Sprintf(
		"https://static.wikia.nocookie.net/twice/images/%d/%s_%d.jpg/revision/latest/scale-to-width-down/185?cb=2024%d",
		i, section, i, i,
	)
}

func normalizedImageUrl(section string, i int) string {
	return fmt.Sprintf("https://static.wikia.nocookie.net/twice/images/%d/%s_%d.jpg", i, section, i)
}

func galleryPage(section string, count int) fakePage {
	var body strings.Builder
	body.WriteString(`<html><head><link rel="icon" href="/favicon.ico"></head><body>`)
	body.WriteString(`<img src="https://static.wikia.nocookie.net/twice/images/site-logo.png">`)
	body.WriteString(`<div id="gallery-0" class="wikia-gallery">`)
	for i := range count {
		fmt.Fprintf(
			&body,
			`<div class="wikia-gallery-item"><img src="%s" alt="%s %d"></div>`,
			imageUrl(section, i), section, i,
		)
	}
	body.WriteString(`</div></body></html>`)
	return fakePage{status: http.StatusOK, body: body.String()}
}

func newTestFetcher(wiki *fakeWiki, sleep chrono.SleepAPI, tel telemetry.API) *Fetcher {
	return NewFetcher(FetcherOptions{
		Tel:       tel,
		Rand:      rand.New(rand.NewSource(42)),
		Sleep:     sleep,
		Transport: wiki,
	})
}

func countBySection(images []GalleryImage) map[string]int {
	counts := map[string]int{}
	for _, img := range images {
		counts[img.SourceSection]++
	}
	return counts
}

func TestFetchGalleryRoundRobinAcrossSections(t *testing.T) {
	wiki := &fakeWiki{pages: map[string]fakePage{
		"Promotional":    galleryPage("Promotional", 5),
		"Concept_Photos": galleryPage("Concept_Photos", 5),
		"Album_Jackets":  galleryPage("Album_Jackets", 5),
	}}
	sleep := &chrono.RecordingSleep{}
	tel := telemetry.NewTestingAPI()
	fetcher := newTestFetcher(wiki, sleep, tel)
	defer fetcher.Close()

	result := fetcher.FetchGallery(context.Background(), "nayeon", "TWICE", 10)

	require.True(t, result.Success, result.Error)
	require.Empty(t, result.Error)
	require.Equal(t, 15, result.TotalFound)
	require.Equal(t, 3, result.SectionsScraped)
	require.Equal(t, "https://twice.fandom.com/wiki/Nayeon/Gallery", result.SourceURL)
	require.Len(t, result.Images, 10)

	counts := countBySection(result.Images)
	require.Len(t, counts, 3)
	for section, n := range counts {
		require.GreaterOrEqual(t, n, 3, section)
		require.LessOrEqual(t, n, 4, section)
	}

	expected := map[string]bool{}
	for _, section := range Sections[:3] {
		for i := range 5 {
			expected[normalizedImageUrl(section, i)] = true
		}
	}
	unique := map[string]bool{}
	for _, img := range result.Images {
		require.True(t, expected[img.URL], img.URL)
		require.True(t, strings.HasPrefix(img.AltText, img.SourceSection), img.AltText)
		unique[img.URL] = true
	}
	require.Len(t, unique, 10)

	// every section was attempted in order, with a pause between each
	require.Equal(t, Sections, wiki.requested)
	require.Equal(t, "https://twice.fandom.com/wiki/Nayeon/Gallery#Promotional", wiki.urls[0])
	require.Len(t, sleep.Durations, len(Sections)-1)
	for _, d := range sleep.Durations {
		require.Equal(t, DefaultSectionDelay, d)
	}

	require.True(t, tel.Has("warning", report_fetcher_fetch_section))
	require.Len(t, tel.Reports("warning"), len(Sections)-3)
}

func TestFetchGalleryStopsEarly(t *testing.T) {
	pages := map[string]fakePage{}
	for _, section := range Sections {
		pages[section] = galleryPage(section, 5)
	}
	wiki := &fakeWiki{pages: pages}
	sleep := &chrono.RecordingSleep{}
	fetcher := newTestFetcher(wiki, sleep, telemetry.NewTestingAPI())
	defer fetcher.Close()

	result := fetcher.FetchGallery(context.Background(), "Momo", "TWICE", 2)

	require.True(t, result.Success, result.Error)
	// 3 * 2 = 6 images are reached after the second section
	require.Equal(t, []string{"Promotional", "Concept_Photos"}, wiki.requested)
	require.Equal(t, 2, result.SectionsScraped)
	require.Equal(t, 10, result.TotalFound)
	require.Len(t, result.Images, 2)
	require.Equal(t, map[string]int{"Promotional": 1, "Concept_Photos": 1}, countBySection(result.Images))
	require.Len(t, sleep.Durations, 1)
}

func TestFetchGallerySkipsFailedSections(t *testing.T) {
	wiki := &fakeWiki{pages: map[string]fakePage{
		"Promotional":    {status: http.StatusNotFound, body: "<html>not found</html>"},
		"Concept_Photos": {status: http.StatusInternalServerError, body: galleryPage("Concept_Photos", 5).body},
		"Events":         galleryPage("Events", 4),
	}}
	tel := telemetry.NewTestingAPI()
	fetcher := newTestFetcher(wiki, &chrono.RecordingSleep{}, tel)
	defer fetcher.Close()

	result := fetcher.FetchGallery(context.Background(), "Jihyo", "TWICE", 10)

	require.True(t, result.Success, result.Error)
	require.Equal(t, 1, result.SectionsScraped)
	require.Equal(t, 4, result.TotalFound)
	require.Len(t, result.Images, 4)
	require.Equal(t, map[string]int{"Events": 4}, countBySection(result.Images))
	require.Len(t, wiki.requested, len(Sections))
	require.Len(t, tel.Reports("warning"), len(Sections)-1)
	// a skipped section is an expected outcome, never a broken component
	require.Empty(t, tel.Reports("broken"))
}

func TestCollectionBuffer(t *testing.T) {
	require.Equal(t, 3, collectionBuffer(1))
	require.Equal(t, 30, collectionBuffer(10))
	require.Equal(t, math.MaxInt, collectionBuffer(math.MaxInt))
	require.Equal(t, math.MaxInt, collectionBuffer(math.MaxInt/bufferFactor+1))
	require.Equal(t, math.MaxInt/bufferFactor*bufferFactor, collectionBuffer(math.MaxInt/bufferFactor))
}

func TestFetchGalleryHugeMaxPhotos(t *testing.T) {
	pages := map[string]fakePage{}
	for _, section := range Sections {
		pages[section] = galleryPage(section, 2)
	}
	wiki := &fakeWiki{pages: pages}
	fetcher := newTestFetcher(wiki, &chrono.RecordingSleep{}, telemetry.NewTestingAPI())
	defer fetcher.Close()

	result := fetcher.FetchGallery(context.Background(), "Dahyun", "TWICE", math.MaxInt)

	require.True(t, result.Success, result.Error)
	require.Equal(t, Sections, wiki.requested)
	require.Equal(t, len(Sections), result.SectionsScraped)
	require.Equal(t, 2*len(Sections), result.TotalFound)
	require.Len(t, result.Images, 2*len(Sections))
}

func TestFetchGalleryNothingFound(t *testing.T) {
	wiki := &fakeWiki{pages: map[string]fakePage{}}
	fetcher := newTestFetcher(wiki, &chrono.RecordingSleep{}, telemetry.NewTestingAPI())
	defer fetcher.Close()

	result := fetcher.FetchGallery(context.Background(), "Sana", "TWICE", 5)

	require.True(t, result.Success)
	require.Equal(t, 0, result.TotalFound)
	require.Equal(t, 0, result.SectionsScraped)
	require.NotNil(t, result.Images)
	require.Empty(t, result.Images)
}

func TestFetchGalleryDeduplicatesAcrossSections(t *testing.T) {
	shared := galleryPage("Promotional", 3)
	wiki := &fakeWiki{pages: map[string]fakePage{
		"Promotional":    shared,
		"Concept_Photos": shared,
	}}
	fetcher := newTestFetcher(wiki, &chrono.RecordingSleep{}, telemetry.NewTestingAPI())
	defer fetcher.Close()

	result := fetcher.FetchGallery(context.Background(), "Mina", "TWICE", 10)

	require.True(t, result.Success)
	require.Equal(t, 6, result.TotalFound)
	require.Equal(t, 2, result.SectionsScraped)
	require.Len(t, result.Images, 3)
	// the first section an image was seen in keeps it
	require.Equal(t, map[string]int{"Promotional": 3}, countBySection(result.Images))
}

func TestFetchGalleryInvalidInput(t *testing.T) {
	wiki := &fakeWiki{pages: map[string]fakePage{}}
	fetcher := newTestFetcher(wiki, &chrono.RecordingSleep{}, telemetry.NewTestingAPI())
	defer fetcher.Close()

	table := []struct {
		member    string
		maxPhotos int
	}{
		{member: "", maxPhotos: 10},
		{member: "   ", maxPhotos: 10},
		{member: "AC/DC", maxPhotos: 10},
		{member: "Nayeon", maxPhotos: 0},
		{member: "Nayeon", maxPhotos: -3},
	}

	for _, row := range table {
		result := fetcher.FetchGallery(context.Background(), row.member, "TWICE", row.maxPhotos)
		require.False(t, result.Success, row.member)
		require.NotEmpty(t, result.Error, row.member)
		require.NotNil(t, result.Images)
		require.Empty(t, result.Images)
	}
	require.Empty(t, wiki.requested)
}

type panickingStrategy struct{}

func (panickingStrategy) Name() string {
	return "panicking"
}

func (panickingStrategy) Candidates(*goquery.Document) *goquery.Selection {
	panic("selector engine exploded")
}

func TestFetchGalleryRecoversFromPanics(t *testing.T) {
	wiki := &fakeWiki{pages: map[string]fakePage{
		"Promotional": galleryPage("Promotional", 2),
	}}
	tel := telemetry.NewTestingAPI()
	fetcher := NewFetcher(FetcherOptions{
		Tel:        tel,
		Rand:       rand.New(rand.NewSource(1)),
		Sleep:      &chrono.RecordingSleep{},
		Transport:  wiki,
		Strategies: []Strategy{panickingStrategy{}},
	})
	defer fetcher.Close()

	result := fetcher.FetchGallery(context.Background(), "Nayeon", "TWICE", 3)

	require.False(t, result.Success)
	require.Contains(t, result.Error, "selector engine exploded")
	require.Equal(t, "https://twice.fandom.com/wiki/Nayeon/Gallery", result.SourceURL)
	require.NotNil(t, result.Images)
	require.Empty(t, result.Images)
	require.True(t, tel.Has("broken", report_fetcher_fetch_gallery))
}

func TestFetchGalleryCancelled(t *testing.T) {
	wiki := &fakeWiki{pages: map[string]fakePage{}}
	fetcher := newTestFetcher(wiki, &chrono.RecordingSleep{}, telemetry.NewTestingAPI())
	defer fetcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := fetcher.FetchGallery(ctx, "Nayeon", "TWICE", 3)
	require.False(t, result.Success)
	require.Contains(t, result.Error, context.Canceled.Error())
	require.Empty(t, result.Images)
}

func TestFetcherClientLifecycle(t *testing.T) {
	wiki := &fakeWiki{pages: map[string]fakePage{
		"Promotional": galleryPage("Promotional", 1),
	}}
	fetcher := newTestFetcher(wiki, &chrono.RecordingSleep{}, telemetry.NewTestingAPI())

	// closing before any fetch is a no-op
	fetcher.Close()
	require.Nil(t, fetcher.http)

	result := fetcher.FetchGallery(context.Background(), "Nayeon", "TWICE", 1)
	require.True(t, result.Success)
	first := fetcher.http
	require.NotNil(t, first)

	fetcher.FetchGallery(context.Background(), "Nayeon", "TWICE", 1)
	require.Same(t, first, fetcher.http)

	fetcher.Close()
	require.Nil(t, fetcher.http)

	result = fetcher.FetchGallery(context.Background(), "Nayeon", "TWICE", 1)
	require.True(t, result.Success)
	require.NotNil(t, fetcher.http)
	require.NotSame(t, first, fetcher.http)
	fetcher.Close()
}

func TestFetcherRequestTimeout(t *testing.T) {
	fetcher := NewFetcher(FetcherOptions{
		Tel:          telemetry.NewTestingAPI(),
		Timeout:      time.Millisecond * 50,
		SectionDelay: -1,
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		}),
	})
	defer fetcher.Close()

	start := time.Now()
	result := fetcher.FetchGallery(context.Background(), "Nayeon", "TWICE", 100)

	require.True(t, result.Success)
	require.Equal(t, 0, result.SectionsScraped)
	require.Less(t, time.Since(start), time.Second*5)
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
