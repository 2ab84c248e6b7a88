// Package model holds the records the gateway returns, their empty defaults
// and the legacy shapes older pages still render.
package model

import "strconv"

// StatusPayload is the wire shape of /books/status. Counters are pointers so
// that an absent counter can be told apart from zero.
type StatusPayload struct {
	TotalBooks  *int64 `json:"total_books"`
	TotalPages  *int64 `json:"total_pages"`
	TotalKWords *int64 `json:"total_kwords"`
	TotalVisits *int64 `json:"total_visits"`
}

// BooksSummary is the collection counter block shown on the home page.
// Page and word counts are strings because the legacy endpoint returns them
// preformatted.
type BooksSummary struct {
	BookCount  int    `json:"bc"`
	PageCount  string `json:"pc"`
	WordCount  string `json:"wc"`
	VisitCount int    `json:"vc"`
}

// DefaultBooksSummary returns the summary shown before or without data.
func DefaultBooksSummary() BooksSummary {
	return BooksSummary{}
}

// ToSummary maps the status counters to the summary shape. Absent numeric
// counters become zero, absent string counters become empty.
func (p StatusPayload) ToSummary() BooksSummary {
	s := DefaultBooksSummary()
	if p.TotalBooks != nil {
		s.BookCount = int(*p.TotalBooks)
	}
	if p.TotalPages != nil {
		s.PageCount = strconv.FormatInt(*p.TotalPages, 10)
	}
	if p.TotalKWords != nil {
		s.WordCount = strconv.FormatInt(*p.TotalKWords, 10)
	}
	if p.TotalVisits != nil {
		s.VisitCount = int(*p.TotalVisits)
	}
	return s
}

// Review is a blog review attached to a book.
type Review struct {
	Title  string `json:"rt"`
	DateIn string `json:"datein"`
	URI    string `json:"uri"`
	Body   string `json:"bt"`
}

// Book is the full detail record from /books/{bookid}.
type Book struct {
	ID             int      `json:"id"`
	Place          int      `json:"place"`
	Publisher      int      `json:"publisher"`
	BookID         string   `json:"bookid"`
	Title          string   `json:"title"`
	Author         string   `json:"author"`
	Region         string   `json:"region"`
	Copyrighter    string   `json:"copyrighter"`
	Translated     int      `json:"translated"`
	PurchDate      string   `json:"purchdate"`
	Price          float64  `json:"price"`
	PubDate        string   `json:"pubdate"`
	PrintDate      string   `json:"printdate"`
	Version        string   `json:"ver"`
	Decoration     string   `json:"deco"`
	KWords         int      `json:"kword"`
	Pages          int      `json:"page"`
	ISBN           string   `json:"isbn"`
	Category       string   `json:"category"`
	OriginalLang   string   `json:"ol"`
	Intro          string   `json:"intro"`
	InStock        int      `json:"instock"`
	Location       string   `json:"location"`
	PublisherName  string   `json:"pu_name"`
	PublisherPlace string   `json:"pu_place"`
	VisitCount     int      `json:"vc"`
	LastVisited    string   `json:"lvt"`
	Reviews        []Review `json:"reviews"`
}

// DefaultBook returns an empty detail record with a non-nil review list.
func DefaultBook() Book {
	return Book{Reviews: []Review{}}
}

// Normalize replaces nil collections with empty ones.
func (b *Book) Normalize() {
	b.Reviews = NonNil(b.Reviews)
}

// LatestBook is the most recently purchased book.
type LatestBook struct {
	ID          int    `json:"id"`
	BookID      string `json:"bookid"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Region      string `json:"region"`
	Copyrighter string `json:"copyrighter"`
	Translated  int    `json:"translated"`
	PurchDate   string `json:"purchdate"`
	Location    string `json:"location"`
	CoverURI    string `json:"cover_uri"`
}

// DefaultLatestBook returns the placeholder shown when no book is known.
func DefaultLatestBook() LatestBook {
	return LatestBook{ID: -1}
}

// RandomBook is one entry of the random pick.
type RandomBook struct {
	ID            int    `json:"id"`
	BookID        string `json:"bookid"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublisherName string `json:"publisher_name"`
	PlaceName     string `json:"place_name"`
	CoverURI      string `json:"cover_uri"`
	TotalVisits   int    `json:"total_visits"`
	LastVisited   string `json:"last_visited"`
}

// RecentBook is a recently visited book.
type RecentBook struct {
	Title       string `json:"title"`
	BookID      string `json:"bookid"`
	VisitCount  int    `json:"vc"`
	LastVisited string `json:"lvt"`
	Region      string `json:"region"`
}

// ForgetBook is a book nobody has looked at for a while.
type ForgetBook struct {
	Title          string `json:"title"`
	BookID         string `json:"bookid"`
	Author         string `json:"author"`
	LastVisited    string `json:"last_visited"`
	DaysSinceVisit int    `json:"days_since_visit"`
}

// TodayBook is a book purchased on this calendar day in an earlier year.
type TodayBook struct {
	ID          int     `json:"id"`
	Place       int     `json:"place"`
	Publisher   int     `json:"publisher"`
	BookID      string  `json:"bookid"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Region      string  `json:"region"`
	Copyrighter string  `json:"copyrighter"`
	Translated  int     `json:"translated"`
	PurchDate   string  `json:"purchdate"`
	Price       float64 `json:"price"`
	PubDate     string  `json:"pubdate"`
	PrintDate   string  `json:"printdate"`
	Version     string  `json:"ver"`
	Decoration  string  `json:"deco"`
	KWords      int     `json:"kword"`
	Pages       int     `json:"page"`
	ISBN        string  `json:"isbn"`
	Category    string  `json:"category"`
	OrigLang    string  `json:"ol"`
	Intro       string  `json:"intro"`
	InStock     int     `json:"instock"`
	Location    string  `json:"location"`
}

// NonNil returns s, or an empty slice when s is nil, so that list fields
// always encode as [] rather than null.
func NonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
