// client.go contains the construction and lifecycle of the http client used by the fetcher, the
// scraping itself lives in gallery.go.

package fandom

import (
	"gacha-backend/internal/components/assert"
	"gacha-backend/internal/components/chrono"
	"gacha-backend/internal/components/telemetry"
	"math/rand"
	"net/http"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

const (
	report_fetcher_fetch_gallery = "fetcher.fetch-gallery"
	report_fetcher_fetch_section = "fetcher.fetch-section"
	report_fetcher_init          = "fetcher.init"
	report_fetcher_images_found  = "fetcher.images-found"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultSectionDelay = 500 * time.Millisecond
	// bufferFactor is how many times maxPhotos worth of images are collected before scraping stops.
	bufferFactor = 3
)

var (
	tracer = otel.Tracer("gacha.scrapers.fandom")
	meter  = otel.Meter("gacha.scrapers.fandom")
)

type FetcherOptions struct {
	Tel  telemetry.API
	Rand *rand.Rand

	// Sleep waits between sections, defaults to chrono.StandardSleep.
	Sleep chrono.SleepAPI
	// Timeout bounds every request, defaults to DefaultTimeout.
	Timeout time.Duration
	// SectionDelay is the pause between two section requests, defaults to DefaultSectionDelay.
	// A negative value disables the pause.
	SectionDelay time.Duration

	// Transport replaces the default http transport.
	Transport http.RoundTripper
	// CloudflareBypass wraps the transport with browser-like TLS and headers.
	CloudflareBypass bool
	// RequestsPerSecond caps the request rate of the client, zero means no cap.
	RequestsPerSecond float64

	// Strategies replaces DefaultStrategies.
	Strategies []Strategy
}

// Fetcher scrapes member galleries off fan wikis. A fetcher owns one http client which is created
// on the first fetch and released by Close. Calls must not overlap.
type Fetcher struct {
	tel          telemetry.API
	rng          *rand.Rand
	sleep        chrono.SleepAPI
	timeout      time.Duration
	sectionDelay time.Duration

	transport         http.RoundTripper
	cloudflareBypass  bool
	requestsPerSecond float64
	strategies        []Strategy

	imagesFound metric.Int64Counter

	http *resty.Client
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	assert.NotNil(opts.Tel)
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Sleep == nil {
		opts.Sleep = chrono.StandardSleep{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.SectionDelay == 0 {
		opts.SectionDelay = DefaultSectionDelay
	}
	if len(opts.Strategies) == 0 {
		opts.Strategies = DefaultStrategies()
	}

	tel := telemetry.NewScopedAPI("fandom", opts.Tel)

	imagesFound, err := meter.Int64Counter(
		"gacha.fandom.images_found",
		metric.WithDescription("Valid images found per gallery section."),
	)
	if err != nil {
		tel.ReportWarning(report_fetcher_init, err)
	}

	return &Fetcher{
		tel:               tel,
		rng:               opts.Rand,
		sleep:             opts.Sleep,
		timeout:           opts.Timeout,
		sectionDelay:      opts.SectionDelay,
		transport:         opts.Transport,
		cloudflareBypass:  opts.CloudflareBypass,
		requestsPerSecond: opts.RequestsPerSecond,
		strategies:        opts.Strategies,
		imagesFound:       imagesFound,
	}
}

func (f *Fetcher) client() *resty.Client {
	if f.http != nil {
		return f.http
	}

	httpClient := resty.New()
	httpClient.SetTimeout(f.timeout)

	if f.transport != nil {
		httpClient.SetTransport(f.transport)
	}
	if f.cloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	if f.requestsPerSecond > 0 {
		rateLimiter := rate.NewLimiter(rate.Limit(f.requestsPerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, f.tel)

	f.http = httpClient
	return httpClient
}

// Close releases the http client, a later fetch creates a new one.
func (f *Fetcher) Close() {
	if f.http == nil {
		return
	}
	f.http.GetClient().CloseIdleConnections()
	f.http = nil
}
