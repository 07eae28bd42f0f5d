// Package imaging implements the deterministic enhancement pipeline applied
// to evidence photos before OCR: luma statistics pick one of four filter
// profiles, the profile's brightness/contrast/saturation pass reshapes the
// image, and a fixed 3x3 sharpening kernel finishes it. Same pixels in,
// same bytes out.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
)

type Profile string

const (
	ProfileNormal      Profile = "normal"
	ProfileDark        Profile = "dark"
	ProfileBright      Profile = "bright"
	ProfileLowContrast Profile = "low_contrast"
)

// Bucket thresholds over 8-bit luma.
const (
	darkBelow        = 100
	brightAbove      = 180
	lowContrastBelow = 80
)

const jpegQuality = 95

type Stats struct {
	AvgLuma   float64
	LumaRange int
}

type adjustment struct {
	brightness    float64
	contrast      float64
	saturation    float64
	sharpenCenter float64
}

// Four-neighbor weight is -1 and corners are 0 for every profile; only the
// kernel center varies.
var profiles = map[Profile]adjustment{
	ProfileDark:        {brightness: 40, contrast: 1.15, saturation: 1.10, sharpenCenter: 5.2},
	ProfileBright:      {brightness: -25, contrast: 1.10, saturation: 1.05, sharpenCenter: 5.0},
	ProfileLowContrast: {brightness: 0, contrast: 1.35, saturation: 1.15, sharpenCenter: 5.7},
	ProfileNormal:      {brightness: 0, contrast: 1.05, saturation: 1.0, sharpenCenter: 5.0},
}

// Analyze computes average luma and luma range (max-min) over all pixels.
func Analyze(img image.Image) Stats {
	b := img.Bounds()
	var sum float64
	minL, maxL := 255, 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl := rgb8(img, x, y)
			l := luma(r, g, bl)
			sum += float64(l)
			if l < minL {
				minL = l
			}
			if l > maxL {
				maxL = l
			}
		}
	}
	n := b.Dx() * b.Dy()
	if n == 0 {
		return Stats{}
	}
	return Stats{AvgLuma: sum / float64(n), LumaRange: maxL - minL}
}

// ProfileFor buckets the stats: dark wins over bright, bright over
// low-contrast.
func ProfileFor(s Stats) Profile {
	switch {
	case s.AvgLuma < darkBelow:
		return ProfileDark
	case s.AvgLuma > brightAbove:
		return ProfileBright
	case s.LumaRange < lowContrastBelow:
		return ProfileLowContrast
	default:
		return ProfileNormal
	}
}

// Enhance runs the full pipeline and returns the JPEG-encoded result along
// with the profile that was selected.
func Enhance(src image.Image) ([]byte, Profile, error) {
	profile := ProfileFor(Analyze(src))
	adj := profiles[profile]

	adjusted := applyAdjustment(src, adj)
	sharpened := sharpen(adjusted, adj.sharpenCenter)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, sharpened, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, profile, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), profile, nil
}

// EnhanceBytes decodes JPEG or PNG input and runs Enhance.
func EnhanceBytes(data []byte) ([]byte, Profile, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return Enhance(img)
}

func applyAdjustment(src image.Image, adj adjustment) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl := rgb8(src, x, y)

			rf := (float64(r)-128)*adj.contrast + 128 + adj.brightness
			gf := (float64(g)-128)*adj.contrast + 128 + adj.brightness
			bf := (float64(bl)-128)*adj.contrast + 128 + adj.brightness

			// Saturation scales each channel's distance from the adjusted
			// pixel's own luma.
			lf := 0.299*rf + 0.587*gf + 0.114*bf
			rf = lf + (rf-lf)*adj.saturation
			gf = lf + (gf-lf)*adj.saturation
			bf = lf + (bf-lf)*adj.saturation

			i := dst.PixOffset(x-b.Min.X, y-b.Min.Y)
			dst.Pix[i] = clamp(rf)
			dst.Pix[i+1] = clamp(gf)
			dst.Pix[i+2] = clamp(bf)
			dst.Pix[i+3] = 0xff
		}
	}
	return dst
}

// sharpen applies the 3x3 kernel {0,-1,0; -1,center,-1; 0,-1,0} per channel
// with clamp-at-border sampling.
func sharpen(src *image.RGBA, center float64) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	at := func(x, y, ch int) float64 {
		if x < 0 {
			x = 0
		}
		if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= h {
			y = h - 1
		}
		return float64(src.Pix[src.PixOffset(x, y)+ch])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := dst.PixOffset(x, y)
			for ch := 0; ch < 3; ch++ {
				v := center*at(x, y, ch) -
					at(x-1, y, ch) - at(x+1, y, ch) -
					at(x, y-1, ch) - at(x, y+1, ch)
				dst.Pix[i+ch] = clamp(v)
			}
			dst.Pix[i+3] = 0xff
		}
	}
	return dst
}

func rgb8(img image.Image, x, y int) (int, int, int) {
	r, g, b, _ := img.At(x, y).RGBA()
	return int(r >> 8), int(g >> 8), int(b >> 8)
}

// luma follows the ITU-R BT.601 weights used throughout the pipeline.
func luma(r, g, b int) int {
	return int(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))
}

func clamp(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
