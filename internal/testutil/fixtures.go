package testutil

import "fmt"

// Gateway paths used by the home page loaders.
const (
	PathStatus         = "/books/status"
	PathLegacySummary  = "/book/summary"
	PathLatest         = "/books/latest/1"
	PathToday          = "/books/today"
	PathVisitHistory   = "/books/visit_history"
	PathReadingSummary = "/readings/summary"
	PathLatestReading  = "/readings/latest/1"
	PathWeather        = "/weather"
	PathWotd           = "/misc/wotd"
	PathQotd           = "/qotd"
)

// PathRandom returns the random-books path for n books.
func PathRandom(n int) string { return fmt.Sprintf("/books/random/%d", n) }

// PathRecent returns the last-visited path for n books.
func PathRecent(n int) string { return fmt.Sprintf("/books/last_visited/%d", n) }

// PathForgotten returns the forgotten-books path for n books.
func PathForgotten(n int) string { return fmt.Sprintf("/books/forgotten/%d", n) }

// PathBook returns the detail path for a book id.
func PathBook(bookid string) string { return "/books/" + bookid }

// BookFixture returns a list-shaped book record. It carries the member
// names of every list endpoint so one fixture decodes into each list type.
func BookFixture(id int, title string) map[string]any {
	return map[string]any{
		"id":               id,
		"bookid":           fmt.Sprintf("%05d", id),
		"title":            title,
		"author":           "佚名",
		"region":           "中国",
		"purchdate":        "2023-01-15",
		"cover_uri":        fmt.Sprintf("/covers/%05d.webp", id),
		"vc":               id * 3,
		"lvt":              "2025-02-28 10:00:00",
		"total_visits":     id * 3,
		"last_visited":     "2025-02-28 10:00:00",
		"days_since_visit": id * 10,
	}
}

// BookList returns n list-shaped book records.
func BookList(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = BookFixture(i+1, fmt.Sprintf("书%d", i+1))
	}
	return out
}

// DetailFixture returns a /books/{bookid} record with one review.
func DetailFixture(id int, title string) map[string]any {
	return map[string]any{
		"id":        id,
		"bookid":    fmt.Sprintf("%05d", id),
		"title":     title,
		"author":    "曹雪芹",
		"region":    "中国",
		"purchdate": "2023-01-15",
		"price":     59.8,
		"pubdate":   "1982-03",
		"kword":     1070,
		"page":      1606,
		"isbn":      "9787020002207",
		"category":  "古典小说",
		"intro":     "中国古典四大名著之一。",
		"pu_name":   "人民文学出版社",
		"pu_place":  "北京",
		"vc":        88,
		"lvt":       "2025-02-28 10:00:00",
		"reviews":   []map[string]any{
			{"rt": "读《红楼梦》", "datein": "2024-05-01", "uri": "https://blog.rsywx.net/1", "bt": "红楼梦"},
		},
	}
}

// SeedHome configures every endpoint the home page loads with healthy data.
func (m *MockGateway) SeedHome(randomCount, listCount int) {
	m.SetEnvelope(PathStatus, map[string]any{
		"total_books":  10,
		"total_pages":  500,
		"total_kwords": 200,
		"total_visits": 5,
	})
	m.SetEnvelope(PathLatest, []map[string]any{BookFixture(123, "红楼梦")})
	m.SetEnvelope(PathRandom(randomCount), BookList(randomCount))
	m.SetEnvelope(PathRecent(listCount), BookList(listCount))
	m.SetEnvelope(PathForgotten(listCount), BookList(listCount))
	m.SetEnvelope(PathToday, BookList(2))
	m.SetEnvelope(PathReadingSummary, map[string]any{
		"books_read":      42,
		"reviews_written": 17,
		"reading_period":  map[string]any{
			"earliest_date": "2010-01-01",
			"latest_date":   "2025-01-01",
			"total_days":    5479,
		},
	})
	m.SetEnvelope(PathLatestReading, []map[string]any{{
		"hid":           9,
		"bid":           123,
		"bookid":        "00123",
		"title":         "红楼梦",
		"author":        "曹雪芹",
		"reviewtitle":   "读《红楼梦》",
		"create_at":     "2025-01-01",
		"cover_uri":     "/covers/00123.webp",
		"reviews_count": 3,
	}})
	m.SetResponse(PathVisitHistory, MockResponse{Body: `{"success":true,"data":[` +
		`{"date":"2025-02-27","visit_count":3,"day_of_week":"Thursday"},` +
		`{"date":"2025-02-28","visit_count":5,"day_of_week":"Friday"}` +
		`],"period_info":{"days":30,"start_date":"2025-01-30","end_date":"2025-02-28"}}`})
	m.SetEnvelope(PathWeather, map[string]any{
		"code":       "200",
		"updateTime": "2025-02-28T10:00+08:00",
		"now":        map[string]any{"obsTime": "2025-02-28T09:50+08:00", "temp": "18", "text": "晴"},
	})
	m.SetEnvelope(PathWotd, map[string]any{"word": "ephemeral", "meaning": "lasting a very short time", "sentence": "Fame is ephemeral.", "type": "adj."})
	m.SetEnvelope(PathQotd, map[string]any{"id": 7, "quote": "学而不思则罔", "source": "论语"})
}
