// Package history implements a snapshot-based undo/redo store. Callers
// bracket every interactive gesture with CommitBefore at gesture start and
// Commit at gesture end; intermediate in-flight states are never recorded,
// so one undo always reverts a whole gesture.
package history

// Cloneable is any state value that can produce a deep copy of itself.
type Cloneable[T any] interface {
	Clone() T
}

// DefaultLimit bounds the undo stack; the oldest snapshot is evicted on
// overflow.
const DefaultLimit = 50

// Store keeps bounded undo and redo stacks of deep-cloned snapshots.
type Store[T Cloneable[T]] struct {
	limit   int
	undo    []T
	redo    []T
	pending []T
}

// NewStore builds a store with the given capacity. Non-positive limits fall
// back to DefaultLimit.
func NewStore[T Cloneable[T]](limit int) *Store[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store[T]{limit: limit}
}

// CommitBefore captures the pre-gesture snapshot. It is idempotent while a
// gesture is open: repeated calls before the matching Commit keep the first
// snapshot, so rapid repeated pointer events cannot split one gesture into
// several undo entries.
func (s *Store[T]) CommitBefore(current T) {
	if len(s.pending) > 0 {
		return
	}
	s.pending = append(s.pending, current.Clone())
}

// Commit finalizes the open gesture: the pre-gesture snapshot moves onto the
// undo stack and the redo stack is cleared. Without a matching CommitBefore
// the current state is recorded instead.
func (s *Store[T]) Commit(current T) {
	var snapshot T
	if len(s.pending) > 0 {
		snapshot = s.pending[0]
		s.pending = s.pending[:0]
	} else {
		snapshot = current.Clone()
	}
	s.undo = append(s.undo, snapshot)
	if len(s.undo) > s.limit {
		copy(s.undo, s.undo[len(s.undo)-s.limit:])
		s.undo = s.undo[:s.limit]
	}
	s.redo = s.redo[:0]
}

// Abort discards an open gesture snapshot without committing, used when a
// drag never crosses the minimum-motion threshold.
func (s *Store[T]) Abort() {
	s.pending = s.pending[:0]
}

// Undo pops the latest snapshot, pushing a clone of the current state onto
// the redo stack. The popped snapshot becomes the live state. With an empty
// undo stack it is a no-op and returns ok=false.
func (s *Store[T]) Undo(current T) (T, bool) {
	if len(s.undo) == 0 {
		var zero T
		return zero, false
	}
	snapshot := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, current.Clone())
	return snapshot, true
}

// Redo is the symmetric inverse of Undo.
func (s *Store[T]) Redo(current T) (T, bool) {
	if len(s.redo) == 0 {
		var zero T
		return zero, false
	}
	snapshot := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, current.Clone())
	return snapshot, true
}

// CanUndo reports whether an undo snapshot exists.
func (s *Store[T]) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether a redo snapshot exists.
func (s *Store[T]) CanRedo() bool { return len(s.redo) > 0 }

// Depth returns the undo and redo stack sizes.
func (s *Store[T]) Depth() (undo, redo int) {
	return len(s.undo), len(s.redo)
}

// Reset drops all snapshots, including any open gesture.
func (s *Store[T]) Reset() {
	s.undo = s.undo[:0]
	s.redo = s.redo[:0]
	s.pending = s.pending[:0]
}
