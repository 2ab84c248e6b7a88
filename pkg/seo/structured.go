package seo

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/Sternrassler/rsywx-client/pkg/model"
)

// SchemaContext is the JSON-LD context of every document built here.
const SchemaContext = "https://schema.org"

// ErrInvalidStructuredData is returned for documents that fail validation.
var ErrInvalidStructuredData = errors.New("invalid structured data")

// Thing is a named schema.org node.
type Thing struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

// BookSchema is a schema.org Book document.
type BookSchema struct {
	Context       string `json:"@context"`
	Type          string `json:"@type"`
	Name          string `json:"name"`
	Author        *Thing `json:"author,omitempty"`
	ISBN          string `json:"isbn,omitempty"`
	Publisher     *Thing `json:"publisher,omitempty"`
	DatePublished string `json:"datePublished,omitempty"`
	Image         string `json:"image,omitempty"`
	Description   string `json:"description,omitempty"`
}

// GenerateBookStructuredData builds the Book document of a detail page.
// Optional fields are set only when the book carries them.
func (g *Generator) GenerateBookStructuredData(book model.Book) BookSchema {
	doc := BookSchema{
		Context:       SchemaContext,
		Type:          "Book",
		Name:          book.Title,
		Author:        &Thing{Type: "Person", Name: book.Author},
		ISBN:          book.ISBN,
		DatePublished: book.PubDate,
	}
	if book.PublisherName != "" {
		doc.Publisher = &Thing{Type: "Organization", Name: book.PublisherName}
	}
	if book.BookID != "" {
		doc.Image = "/covers/" + book.BookID + ".webp"
	}
	if book.Intro != "" {
		doc.Description = book.Intro
	} else {
		doc.Description = fmt.Sprintf("《%s》是%s的作品，收藏于%s。", book.Title, book.Author, g.site.Name)
	}
	return doc
}

// ValidateStructuredData checks that v encodes to a JSON object carrying
// @context and @type. Book documents also need a name and an author object
// with a name.
func ValidateStructuredData(v any) error {
	if v == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidStructuredData)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStructuredData, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: not an object", ErrInvalidStructuredData)
	}

	if s, _ := doc["@context"].(string); s == "" {
		return fmt.Errorf("%w: missing @context", ErrInvalidStructuredData)
	}
	typ, _ := doc["@type"].(string)
	if typ == "" {
		return fmt.Errorf("%w: missing @type", ErrInvalidStructuredData)
	}
	if typ != "Book" {
		return nil
	}
	if s, _ := doc["name"].(string); s == "" {
		return fmt.Errorf("%w: book without name", ErrInvalidStructuredData)
	}
	author, ok := doc["author"].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: book author must be an object", ErrInvalidStructuredData)
	}
	if s, _ := author["name"].(string); s == "" {
		return fmt.Errorf("%w: book author without name", ErrInvalidStructuredData)
	}
	return nil
}

// StructuredDataJSON validates v and encodes it for a JSON-LD script tag.
func StructuredDataJSON(v any) ([]byte, error) {
	if err := ValidateStructuredData(v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
