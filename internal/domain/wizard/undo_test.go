package wizard_test

import (
	"testing"
	"time"

	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/wizard"
	"github.com/stretchr/testify/require"
)

func recordWith(text string) careplan.Record {
	return careplan.Record{AboutMe: &careplan.Narrative{Text: text}}
}

func TestUndoStack_LastInFirstOut(t *testing.T) {
	s := wizard.NewUndoStack(0)
	require.False(t, s.CanUndo())

	s.Push(recordWith("a"))
	s.Push(recordWith("b"))
	require.Equal(t, 2, s.Len())

	got, ok := s.Pop()
	require.True(t, ok)
	require.Equal(t, "b", got.AboutMe.Text)
	got, ok = s.Pop()
	require.True(t, ok)
	require.Equal(t, "a", got.AboutMe.Text)

	_, ok = s.Pop()
	require.False(t, ok)
}

func TestUndoStack_StoresCopies(t *testing.T) {
	s := wizard.NewUndoStack(0)
	rec := recordWith("a")
	s.Push(rec)
	rec.AboutMe.Text = "changed"

	got, _ := s.Pop()
	require.Equal(t, "a", got.AboutMe.Text)
}

func TestUndoStack_DropsOldestBeyondDepth(t *testing.T) {
	s := wizard.NewUndoStack(2)
	s.Push(recordWith("a"))
	s.Push(recordWith("b"))
	s.Push(recordWith("c"))
	require.Equal(t, 2, s.Len())

	got, _ := s.Pop()
	require.Equal(t, "c", got.AboutMe.Text)
	got, _ = s.Pop()
	require.Equal(t, "b", got.AboutMe.Text)
	require.False(t, s.CanUndo())
}

func TestDebouncer_CoalescesTriggers(t *testing.T) {
	d := wizard.NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Trigger()
	}

	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("debouncer never fired")
	}

	select {
	case <-d.C():
		t.Fatal("debouncer fired twice for one burst")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncer_StopSuppressesPending(t *testing.T) {
	d := wizard.NewDebouncer(20 * time.Millisecond)
	d.Trigger()
	d.Stop()
	d.Trigger()

	select {
	case <-d.C():
		t.Fatal("stopped debouncer fired")
	case <-time.After(80 * time.Millisecond):
	}
}
