package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Entry is one published essay translation. Entries are immutable once created.
type Entry struct {
	Fingerprint   string    `json:"fingerprint" validate:"required,len=64,hexadecimal,lowercase"`
	Title         string    `json:"title" validate:"required"`
	Author        string    `json:"author" validate:"required"`
	Body          string    `json:"body" validate:"required"`
	OriginalTitle string    `json:"original_title,omitempty"`
	PublishedAt   time.Time `json:"published_at" validate:"required"`
	SourceURL     string    `json:"source_url" validate:"required,http_url"`
	ImageURL      string    `json:"image_url,omitempty" validate:"omitempty,http_url"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewEntry builds an Entry from a scraped essay and its translation.
// The fingerprint is always taken from the original-language body.
func NewEntry(raw RawEssay, tr Translation, publishedAt time.Time) (Entry, error) {
	author := tr.Author
	if strings.TrimSpace(author) == "" {
		author = raw.Author
	}

	e := Entry{
		Fingerprint:   raw.Fingerprint(),
		Title:         strings.TrimSpace(tr.Title),
		Author:        strings.TrimSpace(author),
		Body:          strings.TrimSpace(tr.Body),
		OriginalTitle: strings.TrimSpace(raw.Title),
		PublishedAt:   publishedAt.UTC(),
		SourceURL:     raw.SourceURL,
		ImageURL:      raw.ImageURL,
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Validate checks the Entry against its schema.
// The first failing field is reported as a *ValidationError.
func (e Entry) Validate() error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{
			Field:   jsonFieldName(fe.Field()),
			Message: fmt.Sprintf("failed '%s' check", fe.Tag()),
		}
	}
	return fmt.Errorf("%w: %v", ErrValidationFailed, err)
}

// jsonFieldName maps a struct field name to its JSON key for error messages.
func jsonFieldName(field string) string {
	switch field {
	case "Fingerprint":
		return "fingerprint"
	case "Title":
		return "title"
	case "Author":
		return "author"
	case "Body":
		return "body"
	case "PublishedAt":
		return "published_at"
	case "SourceURL":
		return "source_url"
	case "ImageURL":
		return "image_url"
	default:
		return strings.ToLower(field)
	}
}

// Paragraphs splits the body into its blank-line separated paragraphs.
func (e Entry) Paragraphs() []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(e.Body, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
