package history_test

import (
	"testing"

	"soundlab/internal/history"
)

type snapshot struct {
	value int
}

func (s *snapshot) Clone() *snapshot {
	cp := *s
	return &cp
}

func TestGestureUndoRevertsToPreGestureState(t *testing.T) {
	store := history.NewStore[*snapshot](0)
	live := &snapshot{value: 1}

	store.CommitBefore(live)
	live.value = 2
	live.value = 3
	store.Commit(live)

	reverted, ok := store.Undo(live)
	if !ok {
		t.Fatal("expected undo to succeed")
	}
	if reverted.value != 1 {
		t.Fatalf("undo returned value %d, want pre-gesture 1", reverted.value)
	}

	redone, ok := store.Redo(reverted)
	if !ok {
		t.Fatal("expected redo to succeed")
	}
	if redone.value != 3 {
		t.Fatalf("redo returned value %d, want 3", redone.value)
	}
}

func TestCommitBeforeIdempotentWhileGestureOpen(t *testing.T) {
	store := history.NewStore[*snapshot](0)
	live := &snapshot{value: 10}

	store.CommitBefore(live)
	live.value = 20
	store.CommitBefore(live)
	live.value = 30
	store.Commit(live)

	reverted, ok := store.Undo(live)
	if !ok {
		t.Fatal("expected undo to succeed")
	}
	if reverted.value != 10 {
		t.Fatalf("undo returned value %d, want first snapshot 10", reverted.value)
	}
}

func TestUndoOnEmptyStackIsNoOp(t *testing.T) {
	store := history.NewStore[*snapshot](0)
	if _, ok := store.Undo(&snapshot{value: 1}); ok {
		t.Fatal("undo on empty stack should report ok=false")
	}
	if _, ok := store.Redo(&snapshot{value: 1}); ok {
		t.Fatal("redo on empty stack should report ok=false")
	}
}

func TestCommitClearsRedoStack(t *testing.T) {
	store := history.NewStore[*snapshot](0)
	live := &snapshot{value: 1}

	store.CommitBefore(live)
	live.value = 2
	store.Commit(live)

	reverted, _ := store.Undo(live)
	if !store.CanRedo() {
		t.Fatal("expected redo available after undo")
	}

	store.CommitBefore(reverted)
	reverted.value = 99
	store.Commit(reverted)

	if store.CanRedo() {
		t.Fatal("commit must clear the redo stack")
	}
}

func TestAbortDiscardsOpenGesture(t *testing.T) {
	store := history.NewStore[*snapshot](0)
	live := &snapshot{value: 1}

	store.CommitBefore(live)
	store.Abort()

	if store.CanUndo() {
		t.Fatal("aborted gesture must not create an undo entry")
	}

	// The next gesture starts clean.
	live.value = 5
	store.CommitBefore(live)
	live.value = 6
	store.Commit(live)

	reverted, ok := store.Undo(live)
	if !ok || reverted.value != 5 {
		t.Fatalf("undo after abort returned %+v, want value 5", reverted)
	}
}

func TestLimitEvictsOldestSnapshot(t *testing.T) {
	store := history.NewStore[*snapshot](3)
	live := &snapshot{value: 0}

	for i := 1; i <= 5; i++ {
		store.CommitBefore(live)
		live.value = i
		store.Commit(live)
	}

	undoDepth, _ := store.Depth()
	if undoDepth != 3 {
		t.Fatalf("undo depth = %d, want capped at 3", undoDepth)
	}

	// Pop all three; the deepest surviving snapshot is the pre-state of
	// gesture 3 (value 2), gestures 1 and 2 were evicted.
	var last *snapshot
	current := live
	for store.CanUndo() {
		prev, _ := store.Undo(current)
		last = prev
		current = prev
	}
	if last.value != 2 {
		t.Fatalf("deepest snapshot value = %d, want 2", last.value)
	}
}

func TestResetDropsEverything(t *testing.T) {
	store := history.NewStore[*snapshot](0)
	live := &snapshot{value: 1}
	store.CommitBefore(live)
	store.Commit(live)
	store.Undo(live)

	store.Reset()
	if store.CanUndo() || store.CanRedo() {
		t.Fatal("reset must drop both stacks")
	}
}
