package engine

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// skyPalette defines a vertical sky gradient. Colors are RGB and are scaled
// toward full strength as intensity grows.
type skyPalette struct {
	top, bottom            [3]float64
	topBase, topGain       float64
	bottomBase, bottomGain float64
}

var sunsetPalette = skyPalette{
	top: [3]float64{255, 140, 100}, bottom: [3]float64{255, 200, 150},
	topBase: 0.7, topGain: 0.3, bottomBase: 0.8, bottomGain: 0.2,
}

var bluePalette = skyPalette{
	top: [3]float64{135, 206, 235}, bottom: [3]float64{200, 230, 255},
	topBase: 0.8, topGain: 0.2, bottomBase: 0.8, bottomGain: 0.2,
}

// skyMask estimates a per-pixel sky weight in [0,1]. Only the upper half of
// the frame is considered: bright pixels and blue-dominant pixels count as
// sky, then the mask is feathered so blends have no hard edge.
func skyMask(img *image.NRGBA) []float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := make([]float64, w*h)

	limit := h / 2
	for y := 0; y < limit; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			p := row + x*4
			r := float64(img.Pix[p])
			g := float64(img.Pix[p+1])
			bl := float64(img.Pix[p+2])

			luma := 0.299*r + 0.587*g + 0.114*bl
			if luma >= 100 || (bl >= 80 && bl >= r && bl >= g*0.9) {
				mask[y*w+x] = 1
			}
		}
	}

	feather(mask, w, h, 15)
	return mask
}

// feather applies a separable box blur to the mask.
func feather(mask []float64, w, h, radius int) {
	if radius < 1 {
		return
	}
	tmp := make([]float64, len(mask))

	// Horizontal pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, n := 0.0, 0
			for k := -radius; k <= radius; k++ {
				xx := x + k
				if xx < 0 || xx >= w {
					continue
				}
				sum += mask[y*w+xx]
				n++
			}
			tmp[y*w+x] = sum / float64(n)
		}
	}

	// Vertical pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, n := 0.0, 0
			for k := -radius; k <= radius; k++ {
				yy := y + k
				if yy < 0 || yy >= h {
					continue
				}
				sum += tmp[yy*w+x]
				n++
			}
			mask[y*w+x] = sum / float64(n)
		}
	}
}

// blendMasked overwrites dst with overlay weighted by mask. dst and overlay
// must share dimensions.
func blendMasked(dst, overlay *image.NRGBA, mask []float64) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := mask[y*w+x]
			if m <= 0 {
				continue
			}
			d := y*dst.Stride + x*4
			o := y*overlay.Stride + x*4
			for c := 0; c < 3; c++ {
				dst.Pix[d+c] = uint8(float64(overlay.Pix[o+c])*m + float64(dst.Pix[d+c])*(1-m) + 0.5)
			}
		}
	}
}

// replaceSky blends a vertical gradient over the detected sky region.
// Intensity scales the gradient colors and shapes the gradient curve the same
// way the reference tool does.
func replaceSky(img image.Image, p skyPalette, intensity float64) *image.NRGBA {
	src := imaging.Clone(img)
	mask := skyMask(src)

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	topScale := p.topBase + p.topGain*intensity
	bottomScale := p.bottomBase + p.bottomGain*intensity
	curve := 1.0 / math.Max(intensity, 0.1)

	for y := 0; y < h; y++ {
		ratio := math.Pow(float64(y)/float64(h), curve)
		var grad [3]float64
		for c := 0; c < 3; c++ {
			v := p.top[c]*topScale*(1-ratio) + p.bottom[c]*bottomScale*ratio
			grad[c] = math.Min(v, 255)
		}
		for x := 0; x < w; x++ {
			m := mask[y*w+x]
			if m <= 0 {
				continue
			}
			d := y*src.Stride + x*4
			for c := 0; c < 3; c++ {
				src.Pix[d+c] = uint8(grad[c]*m + float64(src.Pix[d+c])*(1-m) + 0.5)
			}
		}
	}
	return src
}
