package model

// ReadingPeriod spans the first and last recorded reading.
type ReadingPeriod struct {
	EarliestDate string `json:"earliest_date"`
	LatestDate   string `json:"latest_date"`
	TotalDays    int    `json:"total_days"`
}

// ReadingSummary is the wire shape of /readings/summary.
type ReadingSummary struct {
	BooksRead      int           `json:"books_read"`
	ReviewsWritten int           `json:"reviews_written"`
	ReadingPeriod  ReadingPeriod `json:"reading_period"`
}

// LegacyReadingSummary is the {hc, rc} block the home page renders.
type LegacyReadingSummary struct {
	HeadCount   int `json:"hc"`
	ReviewCount int `json:"rc"`
}

// DefaultReadingSummary returns an all-zero summary.
func DefaultReadingSummary() ReadingSummary {
	return ReadingSummary{}
}

// ToLegacy maps books read to hc and reviews written to rc.
func (s ReadingSummary) ToLegacy() LegacyReadingSummary {
	return LegacyReadingSummary{
		HeadCount:   s.BooksRead,
		ReviewCount: s.ReviewsWritten,
	}
}

// LatestReading is the newest review, as /readings/latest/{n} returns it.
type LatestReading struct {
	HID          int    `json:"hid"`
	BID          int    `json:"bid"`
	BookID       string `json:"bookid"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	ReviewTitle  string `json:"reviewtitle"`
	CreateAt     string `json:"create_at"`
	CoverURI     string `json:"cover_uri"`
	ReviewsCount int    `json:"reviews_count"`
}

// LegacyLatestReading is the older flattened review shape.
type LegacyLatestReading struct {
	HID           int     `json:"hid"`
	BID           int     `json:"bid"`
	ReviewTitle   string  `json:"reviewtitle"`
	CreateAt      string  `json:"create_at"`
	Display       int     `json:"display"`
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	DateIn        string  `json:"datein"`
	URI           string  `json:"uri"`
	Feature       string  `json:"feature"`
	BookReviewCol *string `json:"book_reviewcol"`
	BookTitle     string  `json:"book_title"`
	BookBookID    string  `json:"book_bookid"`
}

const noReadingTitle = "No reading yet"

// DefaultLatestReading returns the placeholder used when nothing was read.
func DefaultLatestReading() LatestReading {
	return LatestReading{ReviewTitle: noReadingTitle}
}

// DefaultLegacyLatestReading returns the legacy placeholder (id -1).
func DefaultLegacyLatestReading() LegacyLatestReading {
	return LegacyLatestReading{
		ID:          -1,
		ReviewTitle: noReadingTitle,
		Title:       noReadingTitle,
	}
}

// ToLegacy flattens the reading into the legacy shape. A zero HID means no
// reading and yields the legacy placeholder.
func (r LatestReading) ToLegacy() LegacyLatestReading {
	if r.HID == 0 && r.BID == 0 && r.BookID == "" {
		return DefaultLegacyLatestReading()
	}
	return LegacyLatestReading{
		HID:         r.HID,
		BID:         r.BID,
		ReviewTitle: r.ReviewTitle,
		CreateAt:    r.CreateAt,
		Display:     1,
		ID:          r.HID,
		Title:       r.ReviewTitle,
		DateIn:      r.CreateAt,
		Feature:     r.CoverURI,
		BookTitle:   r.Title,
		BookBookID:  r.BookID,
	}
}
