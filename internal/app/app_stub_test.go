//go:build !ebiten

package app

import (
	"errors"
	"testing"
)

func TestNewRequiresGUIBuild(t *testing.T) {
	if _, err := New(NewConfig(), nil); !errors.Is(err, ErrNoGUI) {
		t.Fatalf("New = %v, want ErrNoGUI", err)
	}
}
