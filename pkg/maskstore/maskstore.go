package maskstore

// Package maskstore is the on-disk cache of predicted probability masks,
// keyed by image id. One blob file per image; existence of the blob means
// "already predicted", which is what makes interrupted runs resumable.
// A sqlite index carries per-mask metadata for inspection; losing the index
// does not invalidate the cache.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/tilevec/tilevec/pkg/kibi"
	"github.com/tilevec/tilevec/pkg/mask"
	"gorm.io/gorm"
)

// ErrNotFound is returned by Get when no mask is cached for the image id.
var ErrNotFound = errors.New("mask not found")

type Store struct {
	Root string

	log logs.Log
	db  *gorm.DB
}

// Open or create a mask store rooted at the given directory
func NewStore(log logs.Log, root string) (*Store, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0770); err != nil {
		return nil, fmt.Errorf("Failed to create mask store path '%v': %w", root, err)
	}
	log.Infof("Opening mask store at '%v'", root)
	dbPath := filepath.Join(root, "masks.sqlite")
	db, err := dbh.OpenDB(log, dbh.MakeSqliteConfig(dbPath), Migrations(log), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open mask index %v: %w", dbPath, err)
	}
	return &Store{
		Root: root,
		log:  log,
		db:   db,
	}, nil
}

func (s *Store) blobPath(id string) string {
	return filepath.Join(s.Root, id+".mask")
}

// Has returns true if a mask for id is cached.
func (s *Store) Has(id string) bool {
	_, err := os.Stat(s.blobPath(id))
	return err == nil
}

// Put persists a mask, failing if one already exists for id. Callers must
// check Has first; two concurrent writers to the same id is a caller error.
func (s *Store) Put(id string, m *mask.Prob) error {
	path := s.blobPath(id)
	if s.Has(id) {
		return fmt.Errorf("mask for '%v' already exists", id)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("Failed to create mask blob '%v': %w", tmp, err)
	}
	if err := WriteBlob(f, m); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("Failed to write mask blob '%v': %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	if st, err := os.Stat(path); err == nil {
		s.log.Infof("Cached mask '%v' (%v)", id, kibi.Bytes(st.Size()))
	}
	rec := &Mask{
		ImageID:   id,
		Width:     m.W,
		Height:    m.H,
		Classes:   m.C,
		CreatedAt: dbh.MakeIntTime(time.Now()),
	}
	if err := s.db.Create(rec).Error; err != nil {
		// The blob is the source of truth, so a failed index write is not fatal
		s.log.Warnf("Failed to index mask '%v': %v", id, err)
	}
	return nil
}

// Get reads a cached mask. Returns ErrNotFound if absent.
func (s *Store) Get(id string) (*mask.Prob, error) {
	f, err := os.Open(s.blobPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("mask '%v': %w", id, ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()
	m, err := ReadBlob(f)
	if err != nil {
		return nil, fmt.Errorf("Failed to read mask blob for '%v': %w", id, err)
	}
	return m, nil
}

// Count returns the number of indexed masks.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.Model(&Mask{}).Count(&n).Error
	return n, err
}
