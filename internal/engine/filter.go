package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// filterFunc applies one catalog filter at the given intensity. Intensity 1.0
// reproduces the filter's reference strength; 0 leaves scaled adjustments at
// identity.
type filterFunc func(img image.Image, intensity float64) *image.NRGBA

var filters = map[string]filterFunc{
	"hdr_pro":            hdrPro,
	"luxury":             luxury,
	"modern_minimal":     modernMinimal,
	"golden_hour":        goldenHour,
	"crisp_clean":        crispClean,
	"sky_dramatic":       skyDramatic,
	"sky_sunset":         skySunset,
	"sky_blue":           skyBlue,
	"cinematic":          cinematic,
	"bright_airy":        brightAiry,
	"vibrant_pop":        vibrantPop,
	"soft_elegance":      softElegance,
	"natural_warmth":     naturalWarmth,
	"architectural":      architectural,
	"moody_dramatic":     moodyDramatic,
	"magazine_editorial": magazineEditorial,
	"warm_sunset":        warmSunset,
	"twilight_magic":     twilightMagic,
	"fresh_bright":       freshBright,
	"balanced_pro":       balancedPro,
}

func applyFilter(ctx context.Context, req Request, progress func(int)) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(req.Input))
	if err != nil {
		return nil, &TransformError{Cause: "could not decode input image"}
	}
	report(progress, 25)

	fn, ok := filters[req.Filter]
	if !ok {
		return nil, &TransformError{Cause: fmt.Sprintf("unknown filter %q", req.Filter)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := fn(img, req.Intensity)
	report(progress, 75)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(100)); err != nil {
		return nil, &TransformError{Cause: "could not encode result image"}
	}
	report(progress, 90)
	return buf.Bytes(), nil
}

// pct converts a reference enhancement factor (e.g. 1.15 for +15%) into an
// intensity-scaled percentage for the imaging adjustment functions.
func pct(base, intensity float64) float64 {
	return (base - 1) * 100 * intensity
}

// sharpenBy sharpens with a sigma derived from a reference factor. A zero or
// negative sigma is a no-op.
func sharpenBy(img image.Image, base, intensity float64) *image.NRGBA {
	sigma := (base - 1) * intensity
	if sigma <= 0 {
		return imaging.Clone(img)
	}
	return imaging.Sharpen(img, sigma)
}

func scale8(v uint8, f float64) uint8 {
	x := float64(v) * f
	if x < 0 {
		x = 0
	}
	if x > 255 {
		x = 255
	}
	return uint8(x + 0.5)
}

// temperature shifts the white balance. Positive values warm the image,
// negative values cool it. The channel weights follow the reference tool.
func temperature(img image.Image, shift float64) *image.NRGBA {
	if shift == 0 {
		return imaging.Clone(img)
	}
	if shift > 0 {
		f := shift / 100
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			c.R = scale8(c.R, 1+f)
			c.G = scale8(c.G, 1+f*0.5)
			c.B = scale8(c.B, 1-f*0.2)
			return c
		})
	}
	f := -shift / 100
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.B = scale8(c.B, 1+f)
		c.G = scale8(c.G, 1+f*0.3)
		c.R = scale8(c.R, 1-f*0.2)
		return c
	})
}

// softGlow blends the image with a blurred copy of itself.
func softGlow(img image.Image, amount float64) *image.NRGBA {
	if amount <= 0 {
		return imaging.Clone(img)
	}
	if amount > 1 {
		amount = 1
	}
	blurred := imaging.Blur(img, 10)
	return imaging.Overlay(img, blurred, image.Pt(0, 0), amount)
}

func hdrPro(img image.Image, i float64) *image.NRGBA {
	out := imaging.AdjustSigmoid(img, 0.5, 5*i)
	out = sharpenBy(out, 1.6, i)
	return imaging.AdjustSaturation(out, 5*i)
}

func luxury(img image.Image, i float64) *image.NRGBA {
	out := temperature(img, 15*i)
	out = imaging.AdjustContrast(out, pct(1.15, i))
	out = sharpenBy(out, 1.3, i)
	out = imaging.AdjustSaturation(out, pct(1.1, i))
	return imaging.AdjustBrightness(out, 8)
}

func modernMinimal(img image.Image, i float64) *image.NRGBA {
	out := temperature(img, -20*i)
	out = imaging.AdjustSaturation(out, -8)
	out = imaging.AdjustBrightness(out, pct(1.12, i))
	return imaging.AdjustContrast(out, pct(1.08, i))
}

func goldenHour(img image.Image, i float64) *image.NRGBA {
	out := temperature(img, 35*i)
	out = imaging.AdjustBrightness(out, pct(1.2, i))
	out = imaging.AdjustSaturation(out, pct(1.25, i))
	return softGlow(out, 0.3*i)
}

func crispClean(img image.Image, i float64) *image.NRGBA {
	out := sharpenBy(img, 1.5, i)
	out = imaging.AdjustBrightness(out, pct(1.18, i))
	out = imaging.AdjustContrast(out, pct(1.12, i))
	return temperature(out, -10*i)
}

func cinematic(img image.Image, i float64) *image.NRGBA {
	// Teal shadows, orange highlights.
	out := imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.R = scale8(c.R, 1+0.15*i)
		c.G = scale8(c.G, 1+0.05*i)
		c.B = scale8(c.B, 1-0.1*i)
		return c
	})
	return imaging.AdjustContrast(out, pct(1.2, i))
}

func brightAiry(img image.Image, i float64) *image.NRGBA {
	out := imaging.AdjustBrightness(img, pct(1.25, i))
	out = imaging.AdjustSaturation(out, -5)
	out = imaging.AdjustContrast(out, pct(1.05, i))
	return temperature(out, -8*i)
}

func vibrantPop(img image.Image, i float64) *image.NRGBA {
	out := imaging.AdjustSaturation(img, pct(1.4, i))
	out = imaging.AdjustContrast(out, pct(1.25, i))
	return sharpenBy(out, 1.35, i)
}

func softElegance(img image.Image, i float64) *image.NRGBA {
	out := temperature(img, 12*i)
	out = imaging.Blur(out, 0.6)
	out = imaging.AdjustBrightness(out, pct(1.1, i))
	return imaging.AdjustContrast(out, pct(1.08, i))
}

func naturalWarmth(img image.Image, i float64) *image.NRGBA {
	out := temperature(img, 22*i)
	out = imaging.AdjustBrightness(out, pct(1.15, i))
	return imaging.AdjustSaturation(out, pct(1.15, i))
}

func architectural(img image.Image, i float64) *image.NRGBA {
	out := sharpenBy(img, 1.6, i)
	out = imaging.AdjustContrast(out, pct(1.3, i))
	return imaging.AdjustSaturation(out, -2)
}

func moodyDramatic(img image.Image, i float64) *image.NRGBA {
	out := imaging.AdjustBrightness(img, -8)
	out = imaging.AdjustContrast(out, pct(1.35, i))
	out = imaging.AdjustSaturation(out, pct(1.25, i))
	return temperature(out, -15*i)
}

func magazineEditorial(img image.Image, i float64) *image.NRGBA {
	out := hdrPro(img, i)
	out = imaging.AdjustSaturation(out, pct(1.3, i))
	out = sharpenBy(out, 1.45, i)
	return imaging.AdjustContrast(out, pct(1.28, i))
}

func twilightMagic(img image.Image, i float64) *image.NRGBA {
	out := temperature(img, -35*i)
	out = imaging.AdjustSaturation(out, pct(1.3, i))
	return imaging.AdjustBrightness(out, 5)
}

func freshBright(img image.Image, i float64) *image.NRGBA {
	out := imaging.AdjustBrightness(img, pct(1.22, i))
	out = imaging.AdjustSaturation(out, pct(1.2, i))
	return temperature(out, -12*i)
}

func balancedPro(img image.Image, i float64) *image.NRGBA {
	out := hdrPro(img, 0.8*i)
	out = imaging.AdjustBrightness(out, pct(1.1, i))
	out = imaging.AdjustContrast(out, pct(1.12, i))
	out = imaging.AdjustSaturation(out, pct(1.08, i))
	return sharpenBy(out, 1.2, i)
}

func skyDramatic(img image.Image, i float64) *image.NRGBA {
	src := imaging.Clone(img)
	enhanced := imaging.AdjustBrightness(imaging.AdjustSaturation(src, 60*i), -15*i)
	blendMasked(src, enhanced, skyMask(src))
	return src
}

func skySunset(img image.Image, i float64) *image.NRGBA {
	return replaceSky(img, sunsetPalette, i)
}

func skyBlue(img image.Image, i float64) *image.NRGBA {
	return replaceSky(img, bluePalette, i)
}

func warmSunset(img image.Image, i float64) *image.NRGBA {
	out := replaceSky(img, sunsetPalette, i)
	out = temperature(out, 30*i)
	return imaging.AdjustBrightness(out, pct(1.15, i))
}
