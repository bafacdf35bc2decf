package fandom

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// FetchGallery collects up to maxPhotos images of a member from the group's fan wiki, spread over as
// many gallery sections as possible. It never returns an error, failures are reported through
// Result.Error.
func (f *Fetcher) FetchGallery(ctx context.Context, memberName, groupName string, maxPhotos int) (result Result) {
	ctx, span := tracer.Start(ctx, "FetchGallery")
	defer span.End()
	span.SetAttributes(
		attribute.String("member", memberName),
		attribute.String("group", groupName),
		attribute.Int("max_photos", maxPhotos),
	)

	baseUrl := ""
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		err := fmt.Errorf("%v", recovered)
		f.tel.ReportBroken(report_fetcher_fetch_gallery, err, memberName, groupName)
		span.RecordError(err)
		span.SetStatus(codes.Error, "panic while fetching gallery")
		result = errorResult(baseUrl, err)
	}()

	if maxPhotos <= 0 {
		return errorResult("", fmt.Errorf("max photos must be positive, got %d", maxPhotos))
	}
	baseUrl, err := GalleryURL(memberName, groupName)
	if err != nil {
		f.tel.ReportWarning(report_fetcher_fetch_gallery, fmt.Errorf("build url: %w", err), memberName, groupName)
		return errorResult("", fmt.Errorf("build gallery url: %w", err))
	}
	span.SetAttributes(attribute.String("source_url", baseUrl))

	collected, scraped, err := f.collect(ctx, baseUrl, collectionBuffer(maxPhotos))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "collection interrupted")
		return errorResult(baseUrl, err)
	}

	unique := dedupeImages(collected)
	selected := sampleRoundRobin(f.rng, unique, maxPhotos)

	f.tel.ReportCount(report_fetcher_images_found, int64(len(collected)))
	f.tel.ReportDebug(
		"gallery fetched",
		baseUrl,
		len(collected),
		len(unique),
		len(selected),
		scraped,
	)

	return Result{
		Success:         true,
		Images:          selected,
		TotalFound:      len(collected),
		SectionsScraped: scraped,
		SourceURL:       baseUrl,
	}
}

// collectionBuffer is how many images are gathered before scraping stops, saturating instead of
// overflowing for huge maxPhotos.
func collectionBuffer(maxPhotos int) int {
	if maxPhotos > math.MaxInt/bufferFactor {
		return math.MaxInt
	}
	return maxPhotos * bufferFactor
}

// collect scrapes sections in order until all have been attempted or `buffer` images were found.
// It returns the images, the number of sections that contributed at least one image, and an error
// only when ctx ends.
func (f *Fetcher) collect(ctx context.Context, baseUrl string, buffer int) ([]GalleryImage, int, error) {
	var collected []GalleryImage
	scraped := 0

	for i, section := range Sections {
		res := f.fetchSection(ctx, baseUrl, section)
		if res.contributed() {
			scraped++
			collected = append(collected, res.Images...)
		}

		if len(collected) >= buffer || i == len(Sections)-1 {
			break
		}

		if f.sectionDelay > 0 {
			err := f.sleep.Sleep(ctx, f.sectionDelay)
			if err != nil {
				return nil, 0, fmt.Errorf("wait between sections: %w", err)
			}
		} else if ctx.Err() != nil {
			return nil, 0, fmt.Errorf("wait between sections: %w", ctx.Err())
		}
	}

	return collected, scraped, nil
}

// fetchSection never fails, a section that cannot be fetched or parsed is returned as skipped.
func (f *Fetcher) fetchSection(ctx context.Context, baseUrl, section string) sectionResult {
	ctx, span := tracer.Start(ctx, "fetchSection")
	defer span.End()
	span.SetAttributes(attribute.String("section", section))

	skip := func(err error) sectionResult {
		f.tel.ReportWarning(report_fetcher_fetch_section, err, section)
		span.RecordError(err)
		span.SetStatus(codes.Error, "section skipped")
		return sectionResult{Section: section, Skipped: err}
	}

	res, err := f.client().R().
		SetContext(ctx).
		Get(sectionURL(baseUrl, section))
	if err != nil {
		return skip(fmt.Errorf("fetch: %w", err))
	}
	if !res.IsSuccess() {
		return skip(fmt.Errorf("fetch: unexpected status %s", res.Status()))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return skip(fmt.Errorf("parse: %w", err))
	}

	images := extractImages(doc, f.strategies, section)
	span.SetAttributes(attribute.Int("images", len(images)))
	if f.imagesFound != nil {
		f.imagesFound.Add(ctx, int64(len(images)), metric.WithAttributes(attribute.String("section", section)))
	}
	f.tel.ReportDebug("section scraped", section, len(images))

	return sectionResult{Section: section, Images: images}
}
