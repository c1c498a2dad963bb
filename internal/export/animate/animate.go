// Package animate renders a trail as an animated GIF: a red marker walks the
// trail over the faded street network while a translucent red line trails it.
package animate

import (
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"math"
	"os"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
	"github.com/mohammed-shakir/eulerian-streets/internal/locate"
)

var (
	ErrInvalidFrameShare = errors.New("frame share must be in (0, 1]")
	ErrInvalidOptions    = errors.New("figure size and dpi must be positive")
	ErrEmptyTrail        = errors.New("nothing to animate")
)

// padding around the sampled points, in projected meters
const padding = 200.0

// Options mirror a square figure of FigSize inches rendered at DPI.
// FrameShare is the fraction of trail points that become frames.
type Options struct {
	FigSize    float64
	FrameShare float64
	DPI        int
}

func Defaults() Options {
	return Options{FigSize: 5, FrameShare: 1, DPI: 80}
}

func (o Options) Validate() error {
	if !(o.FrameShare > 0 && o.FrameShare <= 1) {
		return fmt.Errorf("%w: %v", ErrInvalidFrameShare, o.FrameShare)
	}
	if o.FigSize <= 0 || o.DPI <= 0 {
		return fmt.Errorf("%w: fig=%v dpi=%d", ErrInvalidOptions, o.FigSize, o.DPI)
	}
	return nil
}

// Stride is the number of trail points advanced per frame.
func (o Options) Stride() int {
	return int(1 / o.FrameShare)
}

func (o Options) FPS() float64 {
	return 40 * o.FrameShare
}

// Delay is the per-frame delay in hundredths of a second.
func (o Options) Delay() int {
	d := int(math.Round(100 / o.FPS()))
	if d < 1 {
		d = 1
	}
	return d
}

func (o Options) pixels() int {
	return int(o.FigSize * float64(o.DPI))
}

// points converts typographic points (1/72 inch) to pixels.
func (o Options) points(pt float64) float64 {
	return pt * float64(o.DPI) / 72
}

// DefaultPath is ./<name>.gif
func DefaultPath(name string) string {
	return "./" + name + ".gif"
}

type canvas struct {
	size       float64
	minX, maxX float64
	minY, maxY float64
}

func (c canvas) xy(p orb.Point) (float64, float64) {
	x := (p[0] - c.minX) / (c.maxX - c.minX) * c.size
	y := c.size - (p[1]-c.minY)/(c.maxY-c.minY)*c.size
	return x, y
}

// Render builds the GIF in memory. Trail and background are projected into
// the UTM zone of the trail.
func Render(t model.Trail, background []orb.LineString, opts Options) (*gif.GIF, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(t) == 0 {
		return nil, ErrEmptyTrail
	}

	proj := locate.UTMFor(t...)
	stride := opts.Stride()
	var frames []orb.Point
	for i := 0; i < len(t); i += stride {
		frames = append(frames, proj(t[i]))
	}

	cv := canvas{size: float64(opts.pixels())}
	cv.minX, cv.minY = math.Inf(1), math.Inf(1)
	cv.maxX, cv.maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range frames {
		cv.minX = math.Min(cv.minX, p[0])
		cv.maxX = math.Max(cv.maxX, p[0])
		cv.minY = math.Min(cv.minY, p[1])
		cv.maxY = math.Max(cv.maxY, p[1])
	}
	cv.minX -= padding
	cv.minY -= padding
	cv.maxX += padding
	cv.maxY += padding

	base := drawBackground(cv, background, proj, opts)

	out := &gif.GIF{LoopCount: 0}
	delay := opts.Delay()
	for i := range frames {
		dc := gg.NewContext(opts.pixels(), opts.pixels())
		dc.DrawImage(base, 0, 0)

		if i > 1 {
			dc.SetRGBA(1, 0, 0, 0.2)
			dc.SetLineWidth(opts.points(opts.FigSize * 4 / 5))
			dc.SetLineCapRound()
			dc.SetLineJoinRound()
			for j, p := range frames[:i] {
				x, y := cv.xy(p)
				if j == 0 {
					dc.MoveTo(x, y)
				} else {
					dc.LineTo(x, y)
				}
			}
			dc.Stroke()
		}

		x, y := cv.xy(frames[i])
		dc.SetRGB(1, 0, 0)
		dc.DrawCircle(x, y, opts.points(opts.FigSize*4/5)/2)
		dc.Fill()

		out.Image = append(out.Image, toPaletted(dc.Image()))
		out.Delay = append(out.Delay, delay)
	}
	return out, nil
}

func drawBackground(cv canvas, edges []orb.LineString, proj orb.Projection, opts Options) image.Image {
	dc := gg.NewContext(opts.pixels(), opts.pixels())
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.SetLineWidth(opts.points(opts.FigSize / 5))
	for _, ls := range edges {
		if len(ls) < 2 {
			continue
		}
		for j, p := range ls {
			x, y := cv.xy(proj(p))
			if j == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
	}
	return dc.Image()
}

func toPaletted(img image.Image) *image.Paletted {
	b := img.Bounds()
	p := image.NewPaletted(b, palette.Plan9)
	draw.Draw(p, b, img, b.Min, draw.Src)
	return p
}

func Write(w io.Writer, t model.Trail, background []orb.LineString, opts Options) error {
	g, err := Render(t, background, opts)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(w, g); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	return nil
}

func WriteFile(path string, t model.Trail, background []orb.LineString, opts Options) error {
	g, err := Render(t, background, opts)
	if err != nil {
		return err
	}
	return writeGIF(path, g)
}

// writeGIF encodes g next to path and renames it into place, so a failed
// encode never leaves a truncated file behind.
func writeGIF(path string, g *gif.GIF) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create gif: %w", err)
	}
	if err := gif.EncodeAll(f, g); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode gif: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close gif: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename gif: %w", err)
	}
	return nil
}
