package imageprep

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat"
)

// Thresholds configure the quality checks run on a preprocessed selfie.
type Thresholds struct {
	BlurThreshold         float64
	DarknessThreshold     float64
	OverexposureThreshold float64
	ColorCastThreshold    float64
}

// DefaultThresholds returns thresholds tuned for downscaled selfies.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BlurThreshold:         100.0,
		DarknessThreshold:     0.2,
		OverexposureThreshold: 0.95,
		// Skin dominates selfies, so the red channel is always ahead.
		ColorCastThreshold: 0.25,
	}
}

// Quality holds lighting and sharpness metrics for an image.
type Quality struct {
	AvgLuminance   float64    `json:"avg_luminance"`
	AvgSaturation  float64    `json:"avg_saturation"`
	ChannelBalance [3]float64 `json:"channel_balance"`
	LaplacianVar   float64    `json:"laplacian_var"`

	TooDark     bool `json:"too_dark"`
	Overexposed bool `json:"overexposed"`
	Blurry      bool `json:"blurry"`
	ColorCast   bool `json:"color_cast"`
}

// Inspect computes quality metrics with DefaultThresholds.
func Inspect(img image.Image) Quality {
	return InspectWithThresholds(img, DefaultThresholds())
}

// InspectWithThresholds computes quality metrics for img.
func InspectWithThresholds(img image.Image, th Thresholds) Quality {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return Quality{}
	}

	var q Quality
	var lum, sat, r, g, bl float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			rv, gv, bv, _ := img.At(x, y).RGBA()
			rf := float64(rv) / 65535.0
			gf := float64(gv) / 65535.0
			bf := float64(bv) / 65535.0
			s, v := saturationValue(rf, gf, bf)
			sat += s
			lum += v
			r += rf
			g += gf
			bl += bf
		}
	}
	n := float64(b.Dx() * b.Dy())
	q.AvgLuminance = lum / n
	q.AvgSaturation = sat / n
	q.ChannelBalance = [3]float64{r / n, g / n, bl / n}

	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)
	q.LaplacianVar = laplacianVariance(gray)

	q.TooDark = q.AvgLuminance < th.DarknessThreshold
	q.Overexposed = q.AvgLuminance > th.OverexposureThreshold
	q.Blurry = q.LaplacianVar <= th.BlurThreshold
	q.ColorCast = channelSpread(q.ChannelBalance) > th.ColorCastThreshold
	return q
}

// OK reports whether no quality issue was detected.
func (q Quality) OK() bool {
	return !q.TooDark && !q.Overexposed && !q.Blurry && !q.ColorCast
}

// Issues lists the detected problems as short identifiers.
func (q Quality) Issues() []string {
	var out []string
	if q.TooDark {
		out = append(out, "too_dark")
	}
	if q.Overexposed {
		out = append(out, "overexposed")
	}
	if q.Blurry {
		out = append(out, "blurry")
	}
	if q.ColorCast {
		out = append(out, "color_cast")
	}
	return out
}

// PromptNote returns a remark for the vision model about lighting problems
// that may distort perceived skin undertone, or "" when the photo is fine.
func (q Quality) PromptNote() string {
	switch {
	case q.TooDark:
		return "Фото снято при слабом освещении, учитывай это при оценке подтона кожи."
	case q.Overexposed:
		return "Фото пересвечено, цвета могут казаться светлее."
	case q.ColorCast:
		return "На фото заметен цветной оттенок освещения, не принимай его за цвет кожи."
	}
	return ""
}

func laplacianVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}
	data := make([]float64, 0, (w-2)*(h-2))
	// Kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			c := float64(gray.GrayAt(x, y).Y)
			v := -4*c +
				float64(gray.GrayAt(x, y-1).Y) +
				float64(gray.GrayAt(x, y+1).Y) +
				float64(gray.GrayAt(x-1, y).Y) +
				float64(gray.GrayAt(x+1, y).Y)
			data = append(data, v)
		}
	}
	return stat.Variance(data, nil)
}

func channelSpread(c [3]float64) float64 {
	return math.Max(math.Abs(c[0]-c[1]), math.Max(math.Abs(c[0]-c[2]), math.Abs(c[1]-c[2])))
}

func saturationValue(r, g, b float64) (s, v float64) {
	hi := math.Max(r, math.Max(g, b))
	lo := math.Min(r, math.Min(g, b))
	if hi == 0 {
		return 0, 0
	}
	return (hi - lo) / hi, hi
}
