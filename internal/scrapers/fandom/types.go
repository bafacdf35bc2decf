package fandom

// GalleryImage is one image found on a gallery page. Its identity is the normalized URL.
type GalleryImage struct {
	URL           string `json:"url"`
	AltText       string `json:"alt_text"`
	SourceSection string `json:"source_section"`
}

// Result is what FetchGallery reports. On failure Success is false, Error carries the message and
// Images is empty (never nil).
type Result struct {
	Success         bool           `json:"success"`
	Images          []GalleryImage `json:"images"`
	TotalFound      int            `json:"total_found"`
	SectionsScraped int            `json:"sections_scraped"`
	SourceURL       string         `json:"source_url"`
	Error           string         `json:"error,omitempty"`
}

func errorResult(sourceUrl string, err error) Result {
	return Result{
		Images:    []GalleryImage{},
		SourceURL: sourceUrl,
		Error:     err.Error(),
	}
}

// sectionResult is the outcome of scraping one section. A non-nil Skipped means the section
// yielded nothing because its request or parse failed.
type sectionResult struct {
	Section string
	Images  []GalleryImage
	Skipped error
}

func (r sectionResult) contributed() bool {
	return r.Skipped == nil && len(r.Images) > 0
}
