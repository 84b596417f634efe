package repository

import (
	"context"

	"itoi-daily/internal/domain/entity"
)

// LoadReport describes what happened while reading the persisted archive.
type LoadReport struct {
	// Missing is true when no archive existed yet and an empty one was returned.
	Missing bool
	// Quarantined counts records dropped on load because they failed validation
	// or repeated an earlier fingerprint. They leave the file on the next Save.
	Quarantined int
	// ResetFrom is the path the corrupt archive will be moved to on the next
	// Save, when the reset policy applied.
	ResetFrom string
}

type ArchiveRepository interface {
	Load(ctx context.Context) (*entity.Archive, LoadReport, error)
	Save(ctx context.Context, archive *entity.Archive) error
}
