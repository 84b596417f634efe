package publish

import "fmt"

// Stages at which a run can fail. They label the run failure metric and StageError.
const (
	StageScrape      = "scrape"
	StageArchiveLoad = "archive_load"
	StageTranslate   = "translate"
	StageValidate    = "validate"
	StageRender      = "render"
	StageArchiveSave = "archive_save"
	StageFeedWrite   = "feed_write"
)

// StageError reports the pipeline stage that failed.
// It unwraps to the cause so errors.Is works with the entity sentinels.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
