package vt

import (
	"strconv"
	"testing"

	uv "github.com/charmbracelet/ultraviolet"
)

func textLine(s string) Line {
	l := make(Line, len(s))
	for i, r := range s {
		l[i] = Cell{Cell: uv.Cell{Content: string(r), Width: 1}}
	}
	return l
}

func TestScrollbackPushAndLine(t *testing.T) {
	sb := NewScrollback(3)
	if sb.Len() != 0 || sb.Line(1) != nil {
		t.Fatal("new scrollback should be empty")
	}

	for i := range 5 {
		sb.PushLine(textLine(strconv.Itoa(i)))
	}

	if sb.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", sb.Len())
	}
	tests := []struct {
		depth int
		want  string
	}{
		{1, "4"},
		{2, "3"},
		{3, "2"},
	}
	for _, tt := range tests {
		if got := sb.Line(tt.depth).String(); got != tt.want {
			t.Errorf("Line(%d) = %q, want %q", tt.depth, got, tt.want)
		}
	}
	if sb.Line(0) != nil || sb.Line(4) != nil {
		t.Error("out of range depth should return nil")
	}
}

func TestScrollbackCopiesLines(t *testing.T) {
	sb := NewScrollback(2)
	l := textLine("ab")
	sb.PushLine(l)
	l[0].Content = "z"
	if got := sb.Line(1).String(); got != "ab" {
		t.Errorf("stored line aliased caller's slice: %q", got)
	}
}

func TestScrollbackDefaultSize(t *testing.T) {
	if got := NewScrollback(0).MaxLines(); got != DefaultScrollback {
		t.Errorf("MaxLines() = %d, want %d", got, DefaultScrollback)
	}
}

func TestScrollbackSetMaxLines(t *testing.T) {
	sb := NewScrollback(5)
	for i := range 5 {
		sb.PushLine(textLine(strconv.Itoa(i)))
	}

	sb.SetMaxLines(2)
	if sb.Len() != 2 {
		t.Fatalf("Len() after shrink = %d", sb.Len())
	}
	if sb.Line(1).String() != "4" || sb.Line(2).String() != "3" {
		t.Errorf("shrink kept the wrong lines: %q %q", sb.Line(1).String(), sb.Line(2).String())
	}

	sb.SetMaxLines(4)
	sb.PushLine(textLine("5"))
	if sb.Len() != 3 || sb.Line(1).String() != "5" || sb.Line(3).String() != "3" {
		t.Errorf("grow lost ordering: len %d", sb.Len())
	}
}

func TestScrollbackClear(t *testing.T) {
	sb := NewScrollback(4)
	sb.PushLine(textLine("x"))
	sb.Clear()
	if sb.Len() != 0 {
		t.Errorf("Len() after Clear = %d", sb.Len())
	}
}
