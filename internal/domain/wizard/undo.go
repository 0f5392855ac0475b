package wizard

import (
	"sync"

	"github.com/rpggio/careplan/internal/domain/careplan"
)

// UndoStack holds prior record snapshots, most recent last. When a depth is
// set the oldest snapshot is dropped on overflow.
type UndoStack struct {
	mu    sync.Mutex
	depth int
	items []careplan.Record
}

// NewUndoStack creates a stack. A depth of zero or less is unbounded.
func NewUndoStack(depth int) *UndoStack {
	return &UndoStack{depth: depth}
}

// Push stores a copy of rec.
func (s *UndoStack) Push(rec careplan.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, rec.Clone())
	if s.depth > 0 && len(s.items) > s.depth {
		s.items = append(s.items[:0], s.items[len(s.items)-s.depth:]...)
	}
}

// Pop removes and returns the most recent snapshot.
func (s *UndoStack) Pop() (careplan.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return careplan.Record{}, false
	}
	last := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = careplan.Record{}
	s.items = s.items[:len(s.items)-1]
	return last, true
}

func (s *UndoStack) CanUndo() bool {
	return s.Len() > 0
}

func (s *UndoStack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
