package fandom

import (
	"errors"
	"net/url"
	"strings"
	"unicode"
)

const (
	defaultWikiHost = "kpop.fandom.com"
	twiceWikiHost   = "twice.fandom.com"
)

// Sections are the gallery page fragments scraped, in order.
var Sections = []string{
	"Promotional",
	"Concept_Photos",
	"Album_Jackets",
	"Music_Videos",
	"Magazines",
	"Events",
	"Social_Media",
	"Fansign",
	"Behind_The_Scenes",
	"Miscellaneous",
}

// WikiHost returns the fan wiki that hosts galleries for a group.
func WikiHost(groupName string) string {
	if strings.EqualFold(strings.TrimSpace(groupName), "twice") {
		return twiceWikiHost
	}
	return defaultWikiHost
}

// titleCase upper-cases the first letter of every run of letters and lower-cases the rest, so
// "jang won-young" becomes "Jang Won-Young".
func titleCase(s string) string {
	var out strings.Builder
	previousLetter := false
	for _, c := range s {
		if unicode.IsLetter(c) {
			if previousLetter {
				out.WriteRune(unicode.ToLower(c))
			} else {
				out.WriteRune(unicode.ToUpper(c))
			}
			previousLetter = true
			continue
		}
		out.WriteRune(c)
		previousLetter = false
	}
	return out.String()
}

// GalleryURL builds the gallery page of a member, for example
// https://twice.fandom.com/wiki/Nayeon/Gallery.
func GalleryURL(memberName, groupName string) (string, error) {
	fields := strings.Fields(memberName)
	if len(fields) == 0 {
		return "", errors.New("member name is empty")
	}
	page := strings.Join(fields, "_")
	page = titleCase(page)
	if strings.Contains(page, "/") {
		return "", errors.New("member name cannot contain '/'")
	}

	link := url.URL{
		Scheme: "https",
		Host:   WikiHost(groupName),
		Path:   "/wiki/" + page + "/Gallery",
	}
	return link.String(), nil
}

func sectionURL(baseUrl, section string) string {
	return baseUrl + "#" + section
}

var imageHosts = []string{
	"static.wikia.nocookie.net",
	"vignette.wikia.nocookie.net",
}

var skipPatterns = []string{
	"site-logo",
	"favicon",
	"icon",
	"logo.png",
	"avatar",
}

// IsValidImage reports whether src points at gallery content: it must be served from a wiki image
// host and must not look like site chrome (logos, favicons, icons, avatars).
func IsValidImage(src string) bool {
	if src == "" {
		return false
	}
	lowered := strings.ToLower(src)

	hosted := false
	for _, host := range imageHosts {
		if strings.Contains(lowered, host) {
			hosted = true
			break
		}
	}
	if !hosted {
		return false
	}

	for _, pattern := range skipPatterns {
		if strings.Contains(lowered, pattern) {
			return false
		}
	}
	return true
}

// NormalizeImageURL strips the query string and the /revision/... path of a wiki image url. When
// the revision path ends in a file name that file name is kept:
//
//	.../revision/abc123/scale-to-width/path.png?cb=123 -> .../path.png
//	.../Name.png/revision/latest/scale-to-width-down/185?cb=1 -> .../Name.png
func NormalizeImageURL(src string) string {
	if i := strings.IndexByte(src, '?'); i >= 0 {
		src = src[:i]
	}

	start := strings.Index(src, "/revision/")
	if start < 0 {
		return src
	}
	tail := src[strings.LastIndexByte(src, '/')+1:]

	if strings.Contains(tail, ".") {
		return src[:start] + "/" + tail
	}
	return src[:start]
}
