// Package entity defines the core domain entities for the essay feed.
// It contains the scraped essay, its translation, the published Entry record,
// the newest-first Archive of entries, and the domain-specific errors.
package entity

import "strings"

// RawEssay is one essay as scraped from the source site, in its original language.
type RawEssay struct {
	Title     string
	Author    string
	Body      string
	SourceURL string
	ImageURL  string
}

// Fingerprint returns the content fingerprint of the essay body.
func (e RawEssay) Fingerprint() string {
	return Fingerprint(e.Body)
}

// Translation holds the translated text fields of an essay.
type Translation struct {
	Title  string
	Author string
	Body   string
}

// IsEmpty reports whether the translation carries no usable body text.
func (t Translation) IsEmpty() bool {
	return strings.TrimSpace(t.Body) == ""
}
