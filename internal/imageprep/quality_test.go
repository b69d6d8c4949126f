package imageprep

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestInspect_UniformGray(t *testing.T) {
	q := Inspect(createTestImage(64, 64, color.RGBA{128, 128, 128, 255}))

	expected := 128.0 / 255.0
	if math.Abs(q.AvgLuminance-expected) > 0.01 {
		t.Errorf("Expected luminance ~%f, got %f", expected, q.AvgLuminance)
	}
	if q.AvgSaturation > 0.01 {
		t.Errorf("Expected zero saturation, got %f", q.AvgSaturation)
	}
	if q.LaplacianVar != 0 {
		t.Errorf("Expected zero laplacian variance, got %f", q.LaplacianVar)
	}
	if !q.Blurry {
		t.Error("Expected uniform image to be flagged blurry")
	}
	if q.TooDark || q.Overexposed || q.ColorCast {
		t.Errorf("Expected no lighting issues, got %v", q.Issues())
	}
}

func TestInspect_Checkerboard(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}

	q := Inspect(img)
	if q.Blurry {
		t.Errorf("Expected sharp image, laplacian variance %f", q.LaplacianVar)
	}
}

func TestInspect_Flags(t *testing.T) {
	tests := []struct {
		name  string
		color color.RGBA
		issue string
	}{
		{"dark", color.RGBA{10, 10, 10, 255}, "too_dark"},
		{"overexposed", color.RGBA{255, 255, 255, 255}, "overexposed"},
		{"blue cast", color.RGBA{60, 60, 200, 255}, "color_cast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Inspect(createTestImage(16, 16, tt.color))
			found := false
			for _, issue := range q.Issues() {
				if issue == tt.issue {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected issue %s, got %v", tt.issue, q.Issues())
			}
			if q.OK() {
				t.Error("Expected OK to be false")
			}
		})
	}
}

func TestQuality_PromptNote(t *testing.T) {
	if note := (Quality{}).PromptNote(); note != "" {
		t.Errorf("Expected empty note, got %q", note)
	}
	if note := (Quality{TooDark: true}).PromptNote(); note == "" {
		t.Error("Expected note for dark photo")
	}
	// Blur alone does not distort colors.
	if note := (Quality{Blurry: true}).PromptNote(); note != "" {
		t.Errorf("Expected empty note for blurry photo, got %q", note)
	}
}

func TestInspect_EmptyImage(t *testing.T) {
	q := Inspect(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	if q.AvgLuminance != 0 || q.Blurry {
		t.Errorf("Expected zero quality, got %+v", q)
	}
}
