package journal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const fileVersion = 1

type fileDoc struct {
	Version int           `json:"version"`
	Entries []TradeRecord `json:"entries"` // newest first
}

// FileStore keeps one JSON document per scope in dir. Every operation
// reloads the document from disk and every write replaces it atomically
// (temp file, fsync, rename, fsync dir), so readers see either the old
// or the new journal, never a torn one.
//
// Only goroutines of one process are coordinated. Two processes writing
// the same dir can lose updates.
type FileStore struct {
	dir   string
	opts  Options
	locks scopeLocks
}

func NewFileStore(dir string, opts Options) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: journal dir is required", ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, unavailable("create journal dir", err)
	}
	opts = opts.withDefaults()
	opts.Log.WithField("dir", dir).Debug("file journal opened")
	return &FileStore{dir: dir, opts: opts}, nil
}

// Path returns the file backing scope.
func (s *FileStore) Path(scope Scope) string {
	if scope == "" {
		return filepath.Join(s.dir, "journal.json")
	}
	name := base64.RawURLEncoding.EncodeToString([]byte(scope))
	return filepath.Join(s.dir, "journal-"+name+".json")
}

func (s *FileStore) Append(ctx context.Context, scope Scope, d Draft) (TradeRecord, error) {
	if err := d.Validate(); err != nil {
		return TradeRecord{}, err
	}
	unlock := s.locks.lock(scope)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return TradeRecord{}, err
	}

	entries, err := s.load(scope)
	if err != nil {
		return TradeRecord{}, err
	}

	rec := d.record(s.opts.NewID(), s.opts.Now().UTC())
	entries = append([]TradeRecord{rec}, entries...)
	if err := s.save(scope, entries); err != nil {
		return TradeRecord{}, err
	}

	s.opts.logger(scope, rec.ID).WithField("instrument", rec.Instrument).Info("trade appended")
	return rec, nil
}

func (s *FileStore) Get(ctx context.Context, scope Scope, id string) (TradeRecord, error) {
	unlock := s.locks.rlock(scope)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return TradeRecord{}, err
	}

	entries, err := s.load(scope)
	if err != nil {
		return TradeRecord{}, err
	}
	i := indexOf(entries, id)
	if i < 0 {
		return TradeRecord{}, notFound(scope, id)
	}
	return entries[i], nil
}

func (s *FileStore) UpdateOutcome(ctx context.Context, scope Scope, id string, u OutcomeUpdate) (TradeRecord, error) {
	if err := u.Validate(); err != nil {
		return TradeRecord{}, err
	}
	unlock := s.locks.lock(scope)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return TradeRecord{}, err
	}

	entries, err := s.load(scope)
	if err != nil {
		return TradeRecord{}, err
	}
	i := indexOf(entries, id)
	if i < 0 {
		return TradeRecord{}, notFound(scope, id)
	}
	u.apply(&entries[i])
	if err := s.save(scope, entries); err != nil {
		return TradeRecord{}, err
	}

	s.opts.logger(scope, id).WithField("result", entries[i].Result).Info("trade outcome updated")
	return entries[i], nil
}

func (s *FileStore) Delete(ctx context.Context, scope Scope, id string) error {
	unlock := s.locks.lock(scope)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := s.load(scope)
	if err != nil {
		return err
	}
	i := indexOf(entries, id)
	if i < 0 {
		s.opts.logger(scope, id).Debug("delete of missing trade ignored")
		return nil
	}
	entries = append(entries[:i], entries[i+1:]...)
	if err := s.save(scope, entries); err != nil {
		return err
	}

	s.opts.logger(scope, id).Info("trade deleted")
	return nil
}

func (s *FileStore) List(ctx context.Context, scope Scope, f Filter) ([]TradeRecord, error) {
	unlock := s.locks.rlock(scope)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := s.load(scope)
	if err != nil {
		return nil, err
	}
	out := make([]TradeRecord, 0, len(entries))
	for _, t := range entries {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Close is a no-op; the store holds no open files between calls.
func (s *FileStore) Close() error {
	return nil
}

// load reads the scope's journal. A missing file is an empty journal;
// anything unreadable or undecodable is ErrStorageUnavailable.
func (s *FileStore) load(scope Scope) ([]TradeRecord, error) {
	path := s.Path(scope)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		s.opts.logger(scope, "").WithError(err).Error("journal read failed")
		return nil, unavailable("read "+path, err)
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		s.opts.logger(scope, "").WithError(err).Error("journal file corrupt")
		return nil, unavailable("decode "+path, err)
	}
	if doc.Version != fileVersion {
		return nil, unavailable("decode "+path, fmt.Errorf("unsupported journal version %d", doc.Version))
	}
	seen := make(map[string]struct{}, len(doc.Entries))
	for i, t := range doc.Entries {
		err := t.check()
		if _, dup := seen[t.ID]; err == nil && dup {
			err = fmt.Errorf("duplicate id %q", t.ID)
		}
		if err != nil {
			s.opts.logger(scope, t.ID).WithError(err).Error("journal entry corrupt")
			return nil, unavailable("decode "+path, fmt.Errorf("entry %d: %v", i, err))
		}
		seen[t.ID] = struct{}{}
	}
	return doc.Entries, nil
}

func (s *FileStore) save(scope Scope, entries []TradeRecord) error {
	if entries == nil {
		entries = []TradeRecord{}
	}
	data, err := json.MarshalIndent(fileDoc{Version: fileVersion, Entries: entries}, "", "    ")
	if err != nil {
		return unavailable("encode journal", err)
	}
	path := s.Path(scope)
	if err := writeFileAtomic(path, data); err != nil {
		s.opts.logger(scope, "").WithError(err).Error("journal write failed")
		return unavailable("write "+path, err)
	}
	return nil
}

func indexOf(entries []TradeRecord, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}

// writeFileAtomic replaces path with data so that a crash leaves either
// the old or the new content.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
