package store

import "sync/atomic"

// Shared hands out references to one DB. The last Release closes it, so an
// owner that is not the last one can let go without blocking on the others.
type Shared struct {
	db   *DB
	refs atomic.Int32
}

// NewShared wraps db with a reference count of one.
func NewShared(db *DB) *Shared {
	s := &Shared{db: db}
	s.refs.Store(1)
	return s
}

func (s *Shared) DB() *DB {
	return s.db
}

func (s *Shared) Retain() *Shared {
	s.refs.Add(1)
	return s
}

// Release drops one reference and reports whether it closed the DB.
func (s *Shared) Release() (bool, error) {
	n := s.refs.Add(-1)
	switch {
	case n == 0:
		return true, s.db.Close()
	case n < 0:
		s.refs.Store(0)
		return false, nil
	default:
		return false, nil
	}
}

func (s *Shared) Refs() int {
	return int(s.refs.Load())
}
