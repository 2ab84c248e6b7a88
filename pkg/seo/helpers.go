package seo

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Fallback images per content type.
const (
	ImageDefaultCover = "/images/default-book-cover.jpg"
	ImageLibrary      = "/images/default-library.jpg"
	ImageReading      = "/images/default-reading.jpg"
	ImageDefault      = "/images/default-og-image.jpg"
)

// DescriptionLimit is the meta description length in characters.
const DescriptionLimit = 160

var whitespace = regexp.MustCompile(`\s+`)

// TruncateText shortens text to maxLength characters, ending in "...". It
// cuts at the last space when there is one.
func TruncateText(text string, maxLength int) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	cut := max(maxLength-3, 0)
	truncated := string(runes[:cut])
	if i := strings.LastIndex(truncated, " "); i > 0 {
		truncated = truncated[:i]
	}
	return truncated + "..."
}

// CleanKeywords trims keywords, drops blanks and removes duplicates while
// keeping first-seen order.
func CleanKeywords(keywords ...string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// CanonicalURL joins base and path with exactly one slash between them.
func CanonicalURL(base, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(base, "/") + path
}

// BookCoverURL returns the cover path for a book id, zero padded to five
// digits. An empty id yields the default cover.
func BookCoverURL(bookid string) string {
	if bookid == "" || bookid == "0" {
		return ImageDefaultCover
	}
	if len(bookid) < 5 {
		bookid = strings.Repeat("0", 5-len(bookid)) + bookid
	}
	return "/covers/" + bookid + ".webp"
}

// SanitizeMetaContent collapses whitespace and strips angle brackets.
func SanitizeMetaContent(content string) string {
	content = whitespace.ReplaceAllString(content, " ")
	content = strings.NewReplacer("<", "", ">", "").Replace(content)
	return strings.TrimSpace(content)
}

// PageType selects keyword and fallback image sets.
type PageType string

const (
	PageHome    PageType = "home"
	PageBook    PageType = "book"
	PageList    PageType = "list"
	PageReading PageType = "reading"
)

// FallbackImage returns the default share image for a page type.
func FallbackImage(t PageType) string {
	switch t {
	case PageBook:
		return ImageDefaultCover
	case PageList:
		return ImageLibrary
	case PageReading:
		return ImageReading
	default:
		return ImageDefault
	}
}

// ValidateImageURL reports whether u parses as an absolute URL or as a
// reference relative to the site root.
func ValidateImageURL(u string) bool {
	if strings.TrimSpace(u) == "" {
		return false
	}
	ref, err := url.Parse(u)
	if err != nil {
		return false
	}
	if ref.IsAbs() {
		return ref.Host != ""
	}
	return true
}

// FormatNumber inserts thousands separators into the integer part of v.
// A nil v formats as "0".
func FormatNumber(v any) string {
	if v == nil {
		return "0"
	}
	s := fmt.Sprint(v)

	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return sign + s
		}
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}
