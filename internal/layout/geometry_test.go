package layout

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFit(t *testing.T) {
	page := PageSize{Width: 100, Height: 200}

	tests := []struct {
		name       string
		w, h       int
		wantWidth  float64
		wantHeight float64
	}{
		{name: "taller than page", w: 50, h: 300, wantWidth: 50 * 200.0 / 300.0, wantHeight: 200},
		{name: "wider than page", w: 300, h: 100, wantWidth: 100, wantHeight: 100 * 100.0 / 300.0},
		{name: "same ratio", w: 150, h: 300, wantWidth: 100, wantHeight: 200},
		{name: "square", w: 64, h: 64, wantWidth: 100, wantHeight: 100},
		{name: "tiny portrait", w: 1, h: 4, wantWidth: 50, wantHeight: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fit(page, tt.w, tt.h)
			if err != nil {
				t.Fatalf("Fit() error = %v", err)
			}
			if !almostEqual(got.Width, tt.wantWidth) || !almostEqual(got.Height, tt.wantHeight) {
				t.Fatalf("Fit() = %.4fx%.4f, want %.4fx%.4f", got.Width, got.Height, tt.wantWidth, tt.wantHeight)
			}
			if got.X != 0 || got.Y != 0 || got.Anchor != AnchorBottomLeft {
				t.Fatalf("anchor = (%v, %v, %v), want bottom-left origin", got.X, got.Y, got.Anchor)
			}
			if got.Width > page.Width+1e-9 || got.Height > page.Height+1e-9 {
				t.Fatalf("Fit() = %vx%v overflows page", got.Width, got.Height)
			}
		})
	}
}

func TestFit_SpecExample(t *testing.T) {
	page := PageSize{Width: 100, Height: 200}

	got, err := Fit(page, 50, 300)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if got.Height != 200 || math.Abs(got.Width-33.33) > 0.01 {
		t.Fatalf("Fit(50x300) = %vx%v, want 33.33x200", got.Width, got.Height)
	}

	got, err = Fit(page, 300, 100)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if got.Width != 100 || math.Abs(got.Height-33.33) > 0.01 {
		t.Fatalf("Fit(300x100) = %vx%v, want 100x33.33", got.Width, got.Height)
	}
}

func TestFit_Degenerate(t *testing.T) {
	for _, dims := range [][2]int{{0, 100}, {100, 0}, {-1, 10}} {
		if _, err := Fit(A4, dims[0], dims[1]); !errors.Is(err, ErrDegenerateImage) {
			t.Errorf("Fit(%dx%d) error = %v, want ErrDegenerateImage", dims[0], dims[1], err)
		}
	}
}

func TestA4(t *testing.T) {
	if math.Abs(A4.Width-595.2756) > 1e-3 || math.Abs(A4.Height-841.8898) > 1e-3 {
		t.Fatalf("A4 = %vx%v", A4.Width, A4.Height)
	}
	if math.Abs(A4.Ratio()-1/math.Sqrt2) > 1e-3 {
		t.Fatalf("A4.Ratio() = %v", A4.Ratio())
	}
}
