package translator

import (
	"context"

	"itoi-daily/internal/domain/entity"
)

// NoOp returns the essay untranslated.
// It is meant for dry runs and local development without an API key.
type NoOp struct {
	defaultAuthor string
}

// NewNoOp creates a NoOp translator.
func NewNoOp(defaultAuthor string) *NoOp {
	return &NoOp{defaultAuthor: defaultAuthor}
}

// Translate implements Translator.
func (n *NoOp) Translate(_ context.Context, essay entity.RawEssay) (entity.Translation, error) {
	author := n.defaultAuthor
	if author == "" {
		author = essay.Author
	}
	return entity.Translation{
		Title:  essay.Title,
		Author: author,
		Body:   essay.Body,
	}, nil
}
