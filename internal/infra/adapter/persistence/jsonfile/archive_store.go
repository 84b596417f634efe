// Package jsonfile persists the essay archive as a single pretty-printed JSON array.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"itoi-daily/internal/domain/entity"
	"itoi-daily/internal/observability/logging"
	"itoi-daily/internal/repository"
)

// CorruptPolicy decides what Load does with an archive file that cannot be parsed.
type CorruptPolicy string

const (
	// CorruptAbort fails the load with entity.ErrCorruptArchive.
	CorruptAbort CorruptPolicy = "abort"
	// CorruptReset starts from an empty archive. The corrupt file stays in place
	// until the next Save moves it aside.
	CorruptReset CorruptPolicy = "reset"
)

const filePerm = 0o644

// Options configures an ArchiveStore.
type Options struct {
	Path       string
	MaxEntries int
	OnCorrupt  CorruptPolicy
	// Now is used for quarantine timestamps and reset file names. Defaults to time.Now.
	Now func() time.Time
}

// ArchiveStore implements repository.ArchiveRepository on top of a JSON file.
//
// Load never writes. Cleanup decided while loading (a corrupt file to move
// aside, records to quarantine) is held until the next Save and committed
// together with the new archive.
type ArchiveStore struct {
	path       string
	maxEntries int
	onCorrupt  CorruptPolicy
	now        func() time.Time

	mu      sync.Mutex
	pending pendingCleanup
}

type pendingCleanup struct {
	corrupt    []byte
	aside      string
	quarantine []quarantineRecord
}

var _ repository.ArchiveRepository = (*ArchiveStore)(nil)

// NewArchiveStore creates a store for the archive file at opts.Path.
func NewArchiveStore(opts Options) *ArchiveStore {
	policy := opts.OnCorrupt
	if policy == "" {
		policy = CorruptAbort
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ArchiveStore{
		path:       opts.Path,
		maxEntries: opts.MaxEntries,
		onCorrupt:  policy,
		now:        now,
	}
}

// Path returns the archive file path.
func (s *ArchiveStore) Path() string { return s.path }

// QuarantinePath returns the sidecar file collecting records removed on load.
func (s *ArchiveStore) QuarantinePath() string { return s.path + ".quarantine.json" }

// Load reads the archive. A missing file yields an empty archive.
func (s *ArchiveStore) Load(ctx context.Context) (*entity.Archive, repository.LoadReport, error) {
	var report repository.LoadReport
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = pendingCleanup{}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		report.Missing = true
		archive, _ := entity.NewArchive(nil, s.maxEntries)
		return archive, report, nil
	}
	if err != nil {
		return nil, report, fmt.Errorf("read archive %s: %w", s.path, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return s.handleCorrupt(ctx, report, data, err)
	}

	valid := make([]entity.Entry, 0, len(records))
	var quarantined []quarantineRecord
	for i, rec := range records {
		var e entity.Entry
		if err := json.Unmarshal(rec, &e); err != nil {
			quarantined = append(quarantined, s.quarantine(rec, fmt.Sprintf("record %d: decode: %v", i, err)))
			continue
		}
		if err := e.Validate(); err != nil {
			quarantined = append(quarantined, s.quarantine(rec, fmt.Sprintf("record %d: %v", i, err)))
			continue
		}
		valid = append(valid, e)
	}

	archive, duplicates := entity.NewArchive(valid, s.maxEntries)
	for _, dup := range duplicates {
		rec, err := json.Marshal(dup)
		if err != nil {
			return nil, report, fmt.Errorf("encode duplicate record: %w", err)
		}
		quarantined = append(quarantined, s.quarantine(rec, "duplicate fingerprint "+dup.Fingerprint))
	}

	if len(quarantined) > 0 {
		s.pending.quarantine = quarantined
		report.Quarantined = len(quarantined)
		logging.FromContext(ctx).Warn("archive records dropped, quarantined on next save",
			"path", s.path,
			"count", len(quarantined),
			"quarantine_path", s.QuarantinePath())
	}

	return archive, report, nil
}

func (s *ArchiveStore) handleCorrupt(ctx context.Context, report repository.LoadReport, data []byte, cause error) (*entity.Archive, repository.LoadReport, error) {
	if s.onCorrupt != CorruptReset {
		return nil, report, fmt.Errorf("%w: %s: %v", entity.ErrCorruptArchive, s.path, cause)
	}

	aside := s.path + ".corrupt-" + strconv.FormatInt(s.now().Unix(), 10)
	s.pending.corrupt = data
	s.pending.aside = aside
	report.ResetFrom = aside
	logging.FromContext(ctx).Warn("corrupt archive, starting empty; it is moved aside on next save",
		"path", s.path,
		"aside", aside,
		"error", cause.Error())

	archive, _ := entity.NewArchive(nil, s.maxEntries)
	return archive, report, nil
}

// Save atomically replaces the archive file with the archive's entries.
// Cleanup pending from the last Load is committed first: the corrupt file is
// copied aside and dropped records are appended to the quarantine sidecar.
func (s *ArchiveStore) Save(ctx context.Context, archive *entity.Archive) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(archive.Entries())
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending.corrupt != nil {
		if err := writeAtomic(s.pending.aside, s.pending.corrupt); err != nil {
			return fmt.Errorf("%w: move aside %s: %v", entity.ErrCorruptArchive, s.path, err)
		}
	}
	if len(s.pending.quarantine) > 0 {
		if err := s.appendQuarantine(s.pending.quarantine); err != nil {
			return err
		}
	}
	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("save archive: %w", err)
	}
	s.pending = pendingCleanup{}
	return nil
}

type quarantineRecord struct {
	Reason        string          `json:"reason"`
	QuarantinedAt time.Time       `json:"quarantined_at"`
	Record        json.RawMessage `json:"record"`
}

func (s *ArchiveStore) quarantine(rec json.RawMessage, reason string) quarantineRecord {
	// 不正なJSON断片はそのまま埋め込めないため文字列として保存する
	if !json.Valid(rec) {
		quoted, _ := json.Marshal(string(rec))
		rec = quoted
	}
	return quarantineRecord{
		Reason:        reason,
		QuarantinedAt: s.now().UTC(),
		Record:        rec,
	}
}

func (s *ArchiveStore) appendQuarantine(records []quarantineRecord) error {
	path := s.QuarantinePath()

	var existing []quarantineRecord
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read quarantine %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("parse quarantine %s: %w", path, err)
		}
	}

	// A record already in the sidecar was committed by an earlier save whose
	// archive write did not complete.
	seen := make(map[string]bool, len(existing))
	for _, r := range existing {
		seen[compact(r.Record)] = true
	}
	added := 0
	for _, r := range records {
		key := compact(r.Record)
		if seen[key] {
			continue
		}
		seen[key] = true
		existing = append(existing, r)
		added++
	}
	if added == 0 {
		return nil
	}

	out, err := encode(existing)
	if err != nil {
		return fmt.Errorf("encode quarantine: %w", err)
	}
	if err := writeAtomic(path, out); err != nil {
		return fmt.Errorf("write quarantine: %w", err)
	}
	return nil
}

func compact(rec json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, rec); err != nil {
		return string(rec)
	}
	return buf.String()
}

// encode renders v as indented JSON with non-ASCII text kept literal.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return renameio.WriteFile(path, data, filePerm)
}
