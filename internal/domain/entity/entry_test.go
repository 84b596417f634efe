package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() RawEssay {
	return RawEssay{
		Title:     "今日のダーリン",
		Author:    "糸井重里",
		Body:      "きょうは雨でした。\n\nそれでも犬は散歩に行きたがりました。",
		SourceURL: "https://www.1101.com/",
		ImageURL:  "https://www.1101.com/images/darling.jpg",
	}
}

func validTranslation() Translation {
	return Translation{
		Title:  "Today's Darling",
		Author: "Shigesato Itoi",
		Body:   "It rained today.\n\nEven so, the dog wanted to go for a walk.",
	}
}

func TestNewEntry_Success(t *testing.T) {
	raw := validRaw()
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.FixedZone("JST", 9*3600))

	e, err := NewEntry(raw, validTranslation(), at)

	require.NoError(t, err)
	assert.Equal(t, Fingerprint(raw.Body), e.Fingerprint)
	assert.Equal(t, "Today's Darling", e.Title)
	assert.Equal(t, "Shigesato Itoi", e.Author)
	assert.Equal(t, "今日のダーリン", e.OriginalTitle)
	assert.Equal(t, time.UTC, e.PublishedAt.Location())
	assert.True(t, e.PublishedAt.Equal(at))
	assert.Equal(t, raw.SourceURL, e.SourceURL)
	assert.Equal(t, raw.ImageURL, e.ImageURL)
}

func TestNewEntry_FingerprintIndependentOfTranslation(t *testing.T) {
	raw := validRaw()
	other := validTranslation()
	other.Body = "A completely different rendering of the same essay."

	a, err := NewEntry(raw, validTranslation(), time.Now())
	require.NoError(t, err)
	b, err := NewEntry(raw, other, time.Now())
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint, b.Fingerprint)
}

func TestNewEntry_AuthorFallsBackToOriginal(t *testing.T) {
	tr := validTranslation()
	tr.Author = "  "

	e, err := NewEntry(validRaw(), tr, time.Now())

	require.NoError(t, err)
	assert.Equal(t, "糸井重里", e.Author)
}

func TestEntry_Validate(t *testing.T) {
	base, err := NewEntry(validRaw(), validTranslation(), time.Now())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Entry)
		field  string
	}{
		{"missing fingerprint", func(e *Entry) { e.Fingerprint = "" }, "fingerprint"},
		{"short fingerprint", func(e *Entry) { e.Fingerprint = "abc123" }, "fingerprint"},
		{"uppercase fingerprint", func(e *Entry) { e.Fingerprint = Fingerprint("x")[:63] + "A" }, "fingerprint"},
		{"missing title", func(e *Entry) { e.Title = "" }, "title"},
		{"missing body", func(e *Entry) { e.Body = "" }, "body"},
		{"zero published_at", func(e *Entry) { e.PublishedAt = time.Time{} }, "published_at"},
		{"relative source url", func(e *Entry) { e.SourceURL = "/essay" }, "source_url"},
		{"bad image url", func(e *Entry) { e.ImageURL = "not a url" }, "image_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := base
			tt.mutate(&e)

			err := e.Validate()

			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestEntry_ValidateAllowsEmptyImage(t *testing.T) {
	raw := validRaw()
	raw.ImageURL = ""

	_, err := NewEntry(raw, validTranslation(), time.Now())

	assert.NoError(t, err)
}

func TestEntry_Paragraphs(t *testing.T) {
	e := Entry{Body: "first\r\n\r\nsecond line\nstill second\n\n\n\n third "}

	assert.Equal(t, []string{"first", "second line\nstill second", "third"}, e.Paragraphs())
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Field: "title", Message: "required"}
	assert.Equal(t, "validation error on field 'title': required", err.Error())
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://www.1101.com/", false},
		{"http", "http://example.com/a", false},
		{"empty", "", true},
		{"ftp scheme", "ftp://example.com/", true},
		{"no host", "https://", true},
		{"too long", "https://example.com/" + string(make([]byte, 2100)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
