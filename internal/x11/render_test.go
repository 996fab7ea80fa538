package x11

import (
	"errors"
	"testing"

	"github.com/BurntSushi/xgb/render"
)

func TestToFixed(t *testing.T) {
	tests := []struct {
		in   float64
		want render.Fixed
	}{
		{1, 65536},
		{0, 0},
		{0.5, 32768},
		{2, 131072},
		{-1, -65536},
		{1.0 / 3.0, 21845},
	}
	for _, tt := range tests {
		if got := ToFixed(tt.in); got != tt.want {
			t.Errorf("ToFixed(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestScaleTransform(t *testing.T) {
	tr := ScaleTransform(1920, 1080, 240, 135)
	if tr.Matrix11 != ToFixed(8) || tr.Matrix22 != ToFixed(8) {
		t.Fatalf("unexpected scale %d/%d", tr.Matrix11, tr.Matrix22)
	}
	if tr.Matrix33 != ToFixed(1) {
		t.Fatalf("Matrix33 = %d, want identity", tr.Matrix33)
	}
	if tr.Matrix12 != 0 || tr.Matrix13 != 0 || tr.Matrix21 != 0 ||
		tr.Matrix23 != 0 || tr.Matrix31 != 0 || tr.Matrix32 != 0 {
		t.Fatalf("expected no shear or translation, got %+v", tr)
	}

	same := ScaleTransform(250, 141, 250, 141)
	if same.Matrix11 != ToFixed(1) || same.Matrix22 != ToFixed(1) {
		t.Fatalf("equal sizes should give identity, got %+v", same)
	}
}

func TestSelectPictFormat(t *testing.T) {
	formats := []render.Pictforminfo{
		{Id: 1, Type: render.PictTypeIndexed, Depth: 8},
		{Id: 2, Type: render.PictTypeDirect, Depth: 24},
		{Id: 3, Type: render.PictTypeDirect, Depth: 32, Direct: render.Directformat{AlphaShift: 24, AlphaMask: 0xFF}},
		{Id: 4, Type: render.PictTypeDirect, Depth: 32},
		{Id: 5, Type: render.PictTypeDirect, Depth: 8, Direct: render.Directformat{AlphaMask: 0xFF}},
	}

	tests := []struct {
		name    string
		depth   byte
		alpha   bool
		want    render.Pictformat
		wantErr bool
	}{
		{"root depth without alpha", 24, false, 2, false},
		{"argb32", 32, true, 3, false},
		{"depth 32 without alpha", 32, false, 4, false},
		{"a8", 8, true, 5, false},
		{"indexed skipped", 8, false, 0, true},
		{"no depth 24 with alpha", 24, true, 0, true},
		{"unknown depth", 16, false, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectPictFormat(formats, tt.depth, tt.alpha)
			if tt.wantErr {
				if !errors.Is(err, ErrNoPictFormat) {
					t.Fatalf("expected ErrNoPictFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got format %d, want %d", got, tt.want)
			}
		})
	}
}
