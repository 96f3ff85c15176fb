package vision

import (
	"image"
	"image/color"
	stddraw "image/draw"

	"golang.org/x/image/draw"
)

// ToGray converts any image to 8-bit grayscale.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	stddraw.Draw(gray, bounds, img, bounds.Min, stddraw.Src)
	return gray
}

// EqualizeHist applies histogram equalization to spread the gray levels over
// the full range, which evens out lighting differences between captures.
func EqualizeHist(g *image.Gray) *image.Gray {
	bounds := g.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return g
	}

	var hist [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[g.GrayAt(x, y).Y]++
		}
	}

	// Cumulative distribution, anchored at the first occupied level.
	var cdf [256]int
	sum := 0
	for i := 0; i < 256; i++ {
		sum += hist[i]
		cdf[i] = sum
	}
	cdfMin := 0
	for i := 0; i < 256; i++ {
		if cdf[i] > 0 {
			cdfMin = cdf[i]
			break
		}
	}

	var lut [256]uint8
	denom := total - cdfMin
	for i := 0; i < 256; i++ {
		if denom <= 0 {
			lut[i] = uint8(i)
			continue
		}
		v := (cdf[i] - cdfMin) * 255 / denom
		if v < 0 {
			v = 0
		}
		lut[i] = uint8(v)
	}

	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.SetGray(x, y, color.Gray{Y: lut[g.GrayAt(x, y).Y]})
		}
	}
	return out
}

// CropNormalize extracts the face region bounded by r, blacks out everything
// outside the inscribed ellipse, converts to grayscale, and equalizes the
// histogram. The result keeps the rectangle's dimensions; callers resize to
// SampleSize for training or inference.
func CropNormalize(img image.Image, r Rect) *image.Gray {
	gray := ToGray(img)

	bounds := gray.Bounds()
	r = clampRect(r, bounds)
	if r.Width <= 0 || r.Height <= 0 {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}

	out := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	cx := float64(r.Width) / 2
	cy := float64(r.Height) / 2
	ax := float64(r.Width) / 2
	ay := float64(r.Height) / 2
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			dx := (float64(x) + 0.5 - cx) / ax
			dy := (float64(y) + 0.5 - cy) / ay
			if dx*dx+dy*dy <= 1 {
				out.SetGray(x, y, gray.GrayAt(r.X+x, r.Y+y))
			}
		}
	}

	return EqualizeHist(out)
}

// Resize scales a grayscale image to the given dimensions.
func Resize(g *image.Gray, width, height int) *image.Gray {
	if b := g.Bounds(); b.Dx() == width && b.Dy() == height {
		return g
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), g, g.Bounds(), draw.Src, nil)
	return dst
}

// clampRect intersects r with the image bounds.
func clampRect(r Rect, bounds image.Rectangle) Rect {
	clamped := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).Intersect(bounds)
	return Rect{
		X:      clamped.Min.X,
		Y:      clamped.Min.Y,
		Width:  clamped.Dx(),
		Height: clamped.Dy(),
	}
}
