package layout

import (
	"github.com/sakif/readme-widgets/internal/widget"
)

// WaveLayer is one sine band. The path spans two widths so a translate of one
// wavelength-aligned width loops seamlessly.
type WaveLayer struct {
	BaseY       float64
	Amplitude   float64
	Wavelength  float64
	Periods     int
	Opacity     float64
	DurationSec float64
	DelaySec    float64
}

type WaveGeometry struct {
	Width, Height float64
	CenterX       float64
	TextY         float64
	SubtitleY     float64
	FontSize      float64
	SubtitleSize  float64
	Layers        []WaveLayer
}

// Wave stacks cfg.Waves bands in the lower part of the banner, back to front.
func Wave(cfg *widget.Wave) WaveGeometry {
	w, h := float64(cfg.Width), float64(cfg.Height)
	g := WaveGeometry{
		Width:        w,
		Height:       h,
		CenterX:      w / 2,
		FontSize:     float64(cfg.FontSize),
		SubtitleSize: float64(cfg.FontSize) * 0.5,
	}
	g.TextY = h*0.42 + g.FontSize*0.35
	if cfg.Subtitle != "" {
		g.TextY = h*0.36 + g.FontSize*0.35
		g.SubtitleY = g.TextY + g.SubtitleSize*1.6
	}

	// Waves occupy the bottom third; later layers sit lower and move faster.
	band := h / 3
	periods := 2
	wavelength := w / float64(periods)
	amplitude := min(float64(cfg.Amplitude), band/2)
	for i := range cfg.Waves {
		frac := float64(i+1) / float64(cfg.Waves+1)
		g.Layers = append(g.Layers, WaveLayer{
			BaseY:       h - band + frac*band,
			Amplitude:   amplitude * (1 - 0.15*float64(i)),
			Wavelength:  wavelength,
			Periods:     periods * 2,
			Opacity:     0.25 + 0.5*float64(i+1)/float64(cfg.Waves),
			DurationSec: cfg.SpeedSec * (1 + 0.35*float64(cfg.Waves-1-i)),
			DelaySec:    -cfg.SpeedSec * 0.25 * float64(i),
		})
	}
	return g
}
