package vt

import (
	"image/color"
	"testing"
)

func TestParseCursorShape(t *testing.T) {
	tests := []struct {
		in      string
		want    CursorShape
		wantErr bool
	}{
		{"block", CursorBlock, false},
		{"Beam", CursorBeam, false},
		{" underline ", CursorUnderline, false},
		{"triangle", CursorDefault, true},
	}
	for _, tt := range tests {
		got, err := ParseCursorShape(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseCursorShape(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestCursorColorChange(t *testing.T) {
	s := NewScreen(2, 2, 10)
	before := s.Cursor()
	s.SetCursorColor(color.RGBA{R: 255, A: 255})
	if s.Cursor().equal(before) {
		t.Error("colour override should change the cursor")
	}
	s.SetCursorColor(nil)
	if !s.Cursor().equal(before) {
		t.Error("clearing the override should restore the cursor")
	}
}
