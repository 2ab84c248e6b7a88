// Package seo builds page meta tags and schema.org structured data for the
// library pages.
package seo

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/rsywx-client/pkg/model"
)

// Site identifies the library site in titles and canonical URLs.
type Site struct {
	Name string
	URL  string
}

// DefaultSite is the production site.
var DefaultSite = Site{Name: "任氏有无轩", URL: "https://rsywx.net"}

// PageMeta is the base meta block of any page.
type PageMeta struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
	Image       string   `json:"image,omitempty"`
	URL         string   `json:"url,omitempty"`
	Type        string   `json:"type,omitempty"`
	Author      string   `json:"author,omitempty"`
}

// BookMeta adds book specific fields.
type BookMeta struct {
	PageMeta
	BookTitle   string  `json:"bookTitle"`
	ISBN        string  `json:"isbn,omitempty"`
	Publisher   string  `json:"publisher,omitempty"`
	PublishDate string  `json:"publishDate,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price,omitempty"`
	CoverImage  string  `json:"coverImage"`
}

// List filters.
const (
	FilterAuthor   = "author"
	FilterCategory = "category"
	FilterTag      = "tag"
	FilterAll      = "all"
)

// ListMeta adds list page fields.
type ListMeta struct {
	PageMeta
	FilterType  string `json:"filterType"`
	FilterValue string `json:"filterValue,omitempty"`
	ItemCount   int    `json:"itemCount"`
}

// SocialMeta holds Open Graph and Twitter card values.
type SocialMeta struct {
	OGTitle            string `json:"ogTitle"`
	OGDescription      string `json:"ogDescription"`
	OGImage            string `json:"ogImage"`
	OGType             string `json:"ogType"`
	OGURL              string `json:"ogUrl,omitempty"`
	TwitterCard        string `json:"twitterCard"`
	TwitterTitle       string `json:"twitterTitle"`
	TwitterDescription string `json:"twitterDescription"`
	TwitterImage       string `json:"twitterImage"`
}

// MetaConfig is everything needed to render a page head.
type MetaConfig struct {
	Base      PageMeta   `json:"base"`
	Social    SocialMeta `json:"social"`
	Canonical string     `json:"canonical,omitempty"`
}

// Tag is one <meta> element. Exactly one of Name and Property is set.
type Tag struct {
	Name     string `json:"name,omitempty"`
	Property string `json:"property,omitempty"`
	Content  string `json:"content"`
}

// Link is one <link> element.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// Head is the rendered tag list of a page.
type Head struct {
	Title string `json:"title"`
	Meta  []Tag  `json:"meta"`
	Links []Link `json:"link"`
}

// Generator builds meta blocks for one site.
type Generator struct {
	site Site
}

// NewGenerator returns a generator for site. Empty fields fall back to
// DefaultSite.
func NewGenerator(site Site) *Generator {
	if site.Name == "" {
		site.Name = DefaultSite.Name
	}
	if site.URL == "" {
		site.URL = DefaultSite.URL
	}
	return &Generator{site: site}
}

// Site returns the generator's site.
func (g *Generator) Site() Site {
	return g.site
}

// PageKeywords returns the keyword set for a page type. For book pages the
// book's title, author and category are appended; for list pages the
// filter value.
func (g *Generator) PageKeywords(t PageType, book *model.Book, filterValue string) []string {
	base := []string{g.site.Name, "藏书", "读书"}
	switch t {
	case PageHome:
		return append(base, "博客", "维客", "图书收藏", "阅读笔记")
	case PageBook:
		if book != nil {
			base = append(base, book.Title, book.Author, book.Category)
		}
		return CleanKeywords(base...)
	case PageList:
		return CleanKeywords(append(base, "图书列表", filterValue)...)
	case PageReading:
		return append(base, "阅读", "读书笔记", "书评")
	default:
		return base
	}
}

// BookDescription builds the meta description of a book, at most
// DescriptionLimit characters.
func (g *Generator) BookDescription(book model.Book) string {
	if book.Intro != "" {
		return TruncateText(fmt.Sprintf("《%s》，%s著。%s", book.Title, book.Author, book.Intro), DescriptionLimit)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "《%s》是%s的作品，收藏于%s。", book.Title, book.Author, g.site.Name)
	if book.PublisherName != "" {
		b.WriteString("出版社：" + book.PublisherName)
	}
	if book.ISBN != "" {
		b.WriteString("ISBN：" + book.ISBN)
	}
	if book.PubDate != "" {
		b.WriteString("出版日期：" + book.PubDate)
	}
	return TruncateText(b.String(), DescriptionLimit)
}

// GenerateBookMeta builds the meta block of a book detail page.
func (g *Generator) GenerateBookMeta(book model.Book) BookMeta {
	cover := BookCoverURL(book.BookID)
	return BookMeta{
		PageMeta: PageMeta{
			Title:       fmt.Sprintf("《%s》- %s | %s", book.Title, book.Author, g.site.Name),
			Description: g.BookDescription(book),
			Keywords:    g.PageKeywords(PageBook, &book, ""),
			Image:       cover,
			URL:         CanonicalURL(g.site.URL, "/books/"+book.BookID),
			Type:        "book",
			Author:      book.Author,
		},
		BookTitle:   book.Title,
		ISBN:        book.ISBN,
		Publisher:   book.PublisherName,
		PublishDate: book.PubDate,
		Category:    book.Category,
		Price:       book.Price,
		CoverImage:  cover,
	}
}

// GenerateListMeta builds the meta block of a filtered book list. Unknown
// filter types get a generic title.
func (g *Generator) GenerateListMeta(filterType, value string, count int) ListMeta {
	name := g.site.Name
	var title, description string
	switch filterType {
	case FilterAuthor:
		title = fmt.Sprintf("%s的作品 | %s", value, name)
		description = fmt.Sprintf("浏览%s的所有作品，共%d本图书收藏于%s", value, count, name)
	case FilterCategory:
		title = fmt.Sprintf("%s分类图书 | %s", value, name)
		description = fmt.Sprintf("%s分类下的图书收藏，共%d本", value, count)
	case FilterTag:
		title = fmt.Sprintf("标签\"%s\"的图书 | %s", value, name)
		description = fmt.Sprintf("标签为\"%s\"的图书列表，共%d本", value, count)
	case FilterAll:
		title = "全部藏书 | " + name
		description = fmt.Sprintf("%s的完整藏书目录，包含各类图书%d本", name, count)
	default:
		title = "图书列表 | " + name
		description = name + "图书收藏"
	}

	return ListMeta{
		PageMeta: PageMeta{
			Title:       title,
			Description: description,
			Keywords:    g.PageKeywords(PageList, nil, value),
			Type:        "website",
		},
		FilterType:  filterType,
		FilterValue: value,
		ItemCount:   count,
	}
}

// GenerateSocialMeta derives Open Graph and Twitter values from a page.
func GenerateSocialMeta(page PageMeta) SocialMeta {
	fallback := FallbackImage(PageHome)
	if page.Type == "book" {
		fallback = FallbackImage(PageBook)
	}
	image := page.Image
	if image == "" {
		image = fallback
	}
	ogType := page.Type
	if ogType == "" {
		ogType = "website"
	}

	return SocialMeta{
		OGTitle:            page.Title,
		OGDescription:      page.Description,
		OGImage:            image,
		OGType:             ogType,
		OGURL:              page.URL,
		TwitterCard:        "summary_large_image",
		TwitterTitle:       page.Title,
		TwitterDescription: page.Description,
		TwitterImage:       image,
	}
}

// GenerateMetaConfig combines a page with its social values.
func GenerateMetaConfig(page PageMeta, canonical string) MetaConfig {
	return MetaConfig{Base: page, Social: GenerateSocialMeta(page), Canonical: canonical}
}

// Tags renders cfg as an ordered tag list. Tags with empty content are
// dropped and every content value is sanitized.
func Tags(cfg MetaConfig) Head {
	base, social := cfg.Base, cfg.Social
	candidates := []Tag{
		{Name: "description", Content: base.Description},
		{Name: "keywords", Content: strings.Join(base.Keywords, ", ")},
		{Name: "author", Content: base.Author},

		{Property: "og:title", Content: social.OGTitle},
		{Property: "og:description", Content: social.OGDescription},
		{Property: "og:image", Content: social.OGImage},
		{Property: "og:type", Content: social.OGType},
		{Property: "og:url", Content: social.OGURL},

		{Name: "twitter:card", Content: social.TwitterCard},
		{Name: "twitter:title", Content: social.TwitterTitle},
		{Name: "twitter:description", Content: social.TwitterDescription},
		{Name: "twitter:image", Content: social.TwitterImage},
	}

	head := Head{Title: SanitizeMetaContent(base.Title), Meta: make([]Tag, 0, len(candidates)), Links: []Link{}}
	for _, t := range candidates {
		t.Content = SanitizeMetaContent(t.Content)
		if t.Content == "" {
			continue
		}
		head.Meta = append(head.Meta, t)
	}
	if cfg.Canonical != "" {
		head.Links = append(head.Links, Link{Rel: "canonical", Href: cfg.Canonical})
	}
	return head
}
