package shape

import (
	"math"

	"heartbeat/internal/mathutil"
)

// RGB is a linear float colour in [0,1] per channel, the layout the point
// renderer uploads directly.
type RGB struct {
	R, G, B float32
}

// hslToRGB converts hue/saturation/lightness (all 0..1) to RGB.
func hslToRGB(h, s, l float64) RGB {
	h = h - math.Floor(h)
	if s <= 0 {
		v := float32(l)
		return RGB{R: v, G: v, B: v}
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return RGB{
		R: float32(hueChannel(p, q, h+1.0/3.0)),
		G: float32(hueChannel(p, q, h)),
		B: float32(hueChannel(p, q, h-1.0/3.0)),
	}
}

func hueChannel(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}

// Palette bands. Core particles are the bright pink "sparkle" highlights;
// mid and halo particles share the darker magenta glow.
var Palette = struct {
	SparkleHue       [2]float64
	SparkleSat       float64
	SparkleLightness [2]float64
	GlowHue          [2]float64
	GlowSat          float64
	GlowLightness    [2]float64
}{
	SparkleHue:       [2]float64{0.90, 0.97},
	SparkleSat:       0.95,
	SparkleLightness: [2]float64{0.68, 0.88},
	GlowHue:          [2]float64{0.83, 0.92},
	GlowSat:          0.80,
	GlowLightness:    [2]float64{0.22, 0.42},
}

// tierColor draws a colour for the tier. Two draws: hue then lightness.
func tierColor(tier Tier, r *mathutil.Rand) RGB {
	if tier == TierCore {
		h := mathutil.Lerp(Palette.SparkleHue[0], Palette.SparkleHue[1], r.Float64())
		l := mathutil.Lerp(Palette.SparkleLightness[0], Palette.SparkleLightness[1], r.Float64())
		return hslToRGB(h, Palette.SparkleSat, l)
	}
	h := mathutil.Lerp(Palette.GlowHue[0], Palette.GlowHue[1], r.Float64())
	l := mathutil.Lerp(Palette.GlowLightness[0], Palette.GlowLightness[1], r.Float64())
	return hslToRGB(h, Palette.GlowSat, l)
}

// Luma is the Rec. 709 relative luminance, used to compare tier brightness.
func (c RGB) Luma() float32 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}
