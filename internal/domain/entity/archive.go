package entity

// Archive is the ordered collection of published entries, newest first.
//
// No two entries share a fingerprint. When MaxEntries is positive, Prepend drops the
// oldest entries beyond that bound; zero keeps every entry.
type Archive struct {
	entries    []Entry
	index      map[string]struct{}
	maxEntries int
}

// NewArchive creates an archive from entries given newest first.
// Later entries repeating an earlier fingerprint are returned as rejected and are not
// part of the archive.
func NewArchive(entries []Entry, maxEntries int) (*Archive, []Entry) {
	a := &Archive{
		entries:    make([]Entry, 0, len(entries)),
		index:      make(map[string]struct{}, len(entries)),
		maxEntries: maxEntries,
	}

	var rejected []Entry
	for _, e := range entries {
		if _, dup := a.index[e.Fingerprint]; dup {
			rejected = append(rejected, e)
			continue
		}
		a.index[e.Fingerprint] = struct{}{}
		a.entries = append(a.entries, e)
	}
	return a, rejected
}

// Contains reports whether an entry with the fingerprint is in the archive.
func (a *Archive) Contains(fingerprint string) bool {
	_, ok := a.index[fingerprint]
	return ok
}

// Prepend inserts the entry at the front of the archive.
// It is a no-op returning false when the fingerprint is already present.
func (a *Archive) Prepend(e Entry) bool {
	if a.Contains(e.Fingerprint) {
		return false
	}

	a.entries = append([]Entry{e}, a.entries...)
	a.index[e.Fingerprint] = struct{}{}

	if a.maxEntries > 0 && len(a.entries) > a.maxEntries {
		for _, dropped := range a.entries[a.maxEntries:] {
			delete(a.index, dropped.Fingerprint)
		}
		a.entries = a.entries[:a.maxEntries:a.maxEntries]
	}
	return true
}

// Head returns up to n entries from the front of the archive, newest first.
// A non-positive n returns every entry.
func (a *Archive) Head(n int) []Entry {
	if n <= 0 || n > len(a.entries) {
		n = len(a.entries)
	}
	out := make([]Entry, n)
	copy(out, a.entries[:n])
	return out
}

// Entries returns a copy of all entries, newest first.
func (a *Archive) Entries() []Entry {
	return a.Head(0)
}

// Len returns the number of entries in the archive.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Latest returns the newest entry, if any.
func (a *Archive) Latest() (Entry, bool) {
	if len(a.entries) == 0 {
		return Entry{}, false
	}
	return a.entries[0], true
}
