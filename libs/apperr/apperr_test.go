package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesOnKind(t *testing.T) {
	err := fmt.Errorf("create appointment: %w", Conflict("overlaps 10:00 booking", nil))
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatal("expected conflict to match ErrSlotConflict")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("conflict must not match ErrNotFound")
	}
	if KindOf(err) != KindConflict {
		t.Fatalf("unexpected kind %v", KindOf(err))
	}
}

func TestInvalidCarriesField(t *testing.T) {
	err := Invalid("time", "must be HH:MM, got %q", "25:00")
	if FieldOf(err) != "time" {
		t.Fatalf("expected field time, got %q", FieldOf(err))
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected validation match")
	}
	if err.Error() != `time: must be HH:MM, got "25:00"` {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("no rows")
	err := Unavailable("business hours missing", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatal("plain errors are internal")
	}
}
