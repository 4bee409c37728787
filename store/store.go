package store

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"btree/btree"
	"btree/sstable"
	"btree/wal"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	journalName    = "journal.wal"
	checkpointName = "checkpoint.sst"
)

// Store keeps a B-tree index in memory and journals every change to a
// write-ahead log in its directory. Reopening loads the last checkpoint and
// replays the journal on top of it. All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	dir     string
	tree    *btree.Btree
	journal *wal.Writer
	logger  *zap.Logger
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open loads the checkpoint and journal in dir into a tree of the given
// minimum degree and prepares the journal for appending. A torn record at the
// end of the journal is cut off before new records are written.
func Open(dir string, degree int, opts ...Option) (*Store, error) {
	s := &Store{dir: dir, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	tree, err := btree.NewBTree(degree, btree.WithLogger(s.logger.Named("btree")))
	if err != nil {
		return nil, err
	}
	s.tree = tree

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}
	if err := s.loadCheckpoint(); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, journalName)
	good, err := s.replay(path)
	if err != nil {
		return nil, err
	}
	if err := s.openJournal(path, os.O_CREATE|os.O_WRONLY, good); err != nil {
		return nil, err
	}
	return s, nil
}

// openJournal opens the journal for appending, first cutting it to truncateTo
// when that is not -1.
func (s *Store) openJournal(path string, flag int, truncateTo int64) error {
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "stat %s", path)
	}
	size := info.Size()
	if truncateTo >= 0 && truncateTo < size {
		s.logger.Warn("truncating torn journal tail",
			zap.String("path", path),
			zap.Int64("size", size),
			zap.Int64("offset", truncateTo))
		if err := f.Truncate(truncateTo); err != nil {
			f.Close()
			return errors.Wrapf(err, "truncate %s", path)
		}
		size = truncateTo
	}
	if _, err := f.Seek(size, io.SeekStart); err != nil {
		f.Close()
		return errors.Wrapf(err, "seek %s", path)
	}
	s.journal = wal.NewWriter(f, size)
	return nil
}

func (s *Store) loadCheckpoint() error {
	path := filepath.Join(s.dir, checkpointName)
	r, err := sstable.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "load checkpoint")
	}
	r.Scan(func(key, val string) bool {
		s.tree.Insert(key, val)
		return true
	})
	s.logger.Info("loaded checkpoint", zap.String("path", path), zap.Int("keys", r.Len()))
	return nil
}

// Checkpoint writes every pair to a new checkpoint file and empties the
// journal. Replaying a journal over the checkpoint it produced yields the same
// pairs, so a crash between the two steps loses nothing.
func (s *Store) Checkpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.journal == nil {
		return wal.ErrClosed
	}

	path := filepath.Join(s.dir, checkpointName)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create %s", tmp)
	}
	w := sstable.NewWriter(f)
	var addErr error
	s.tree.Ascend(func(key, val string) bool {
		addErr = w.Add(key, val)
		return addErr == nil
	})
	if err := errors.CombineErrors(addErr, w.Close()); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "write checkpoint")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "install %s", path)
	}

	if err := s.journal.Close(); err != nil {
		s.logger.Warn("close journal before reset", zap.Error(err))
	}
	s.journal = nil
	journal := filepath.Join(s.dir, journalName)
	if err := s.openJournal(journal, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, -1); err != nil {
		return err
	}
	s.logger.Info("checkpointed", zap.String("path", path), zap.Int("keys", s.tree.Len()))
	return nil
}

// replay applies every record of the journal at path to the tree. It returns
// the offset to truncate the journal to when its tail is torn, or -1.
func (s *Store) replay(path string) (int64, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return -1, nil
	}
	if err != nil {
		return -1, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r := wal.NewReader(f)
	var sets, deletes int
	for {
		key, val, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, wal.ErrTornRecord) {
			s.logger.Warn("journal ends in a torn record", zap.Error(err))
			s.logReplay(sets, deletes)
			return r.Offset(), nil
		}
		if err != nil {
			return -1, errors.Wrapf(err, "replay %s", path)
		}

		if val.IsTombstone() {
			deletes++
			if err := s.tree.Remove(key); err != nil {
				s.logger.Debug("journaled delete of missing key", zap.String("key", key), zap.Error(err))
			}
			continue
		}
		sets++
		s.tree.Insert(key, val.Value())
	}
	s.logReplay(sets, deletes)
	return -1, nil
}

func (s *Store) logReplay(sets, deletes int) {
	s.logger.Info("replayed journal",
		zap.String("dir", s.dir),
		zap.Int("sets", sets),
		zap.Int("deletes", deletes),
		zap.Int("keys", s.tree.Len()),
		zap.Int("height", s.tree.Height()))
}

// Set journals the pair and then stores it in the tree, replacing any
// previous value.
func (s *Store) Set(key, val string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.journal == nil {
		return wal.ErrClosed
	}
	if err := s.journal.RecordInsertion(key, val); err != nil {
		s.logger.Error("journal insertion failed", zap.String("key", key), zap.Error(err))
		return err
	}
	s.tree.Insert(key, val)
	return nil
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tree.Get(key)
}

// Delete removes key. Deleting a key that is not stored journals nothing and
// returns btree.ErrKeyNotFound, or btree.ErrEmptyTree when the store is empty.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.journal == nil {
		return wal.ErrClosed
	}
	if s.tree.Len() == 0 {
		return btree.ErrEmptyTree
	}
	if _, ok := s.tree.Search(key); !ok {
		s.logger.Debug("delete of missing key", zap.String("key", key))
		return errors.Wrapf(btree.ErrKeyNotFound, "delete %q", key)
	}
	if err := s.journal.RecordDeletion(key); err != nil {
		s.logger.Error("journal deletion failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return s.tree.Remove(key)
}

// Pairs returns every stored pair in key order.
func (s *Store) Pairs() []btree.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tree.Pairs()
}

// Stats describes the shape of the index.
type Stats struct {
	Keys   int
	Height int
	Degree int
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{Keys: s.tree.Len(), Height: s.tree.Height(), Degree: s.tree.Degree()}
}

// View runs fn with the tree while holding the store's lock. fn must not
// keep the tree or modify it.
func (s *Store) View(fn func(tree *btree.Btree)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.tree)
}

// Close seals and closes the journal.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.journal == nil {
		return wal.ErrClosed
	}
	err := s.journal.Close()
	s.journal = nil
	return err
}
