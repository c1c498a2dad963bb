package animate

import (
	"bytes"
	"errors"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

func sampleTrail() model.Trail {
	return model.Trail{
		{18.0700, 59.3300}, {18.0710, 59.3300}, {18.0710, 59.3300},
		{18.0710, 59.3305}, {18.0700, 59.3305}, {18.0700, 59.3300},
	}
}

func smallOpts() Options {
	return Options{FigSize: 1, FrameShare: 1, DPI: 40}
}

func TestOptions_Validate(t *testing.T) {
	for _, share := range []float64{0, -0.5, 1.5} {
		o := Defaults()
		o.FrameShare = share
		if err := o.Validate(); !errors.Is(err, ErrInvalidFrameShare) {
			t.Fatalf("share=%v err=%v, want ErrInvalidFrameShare", share, err)
		}
	}
	o := Defaults()
	o.DPI = 0
	if err := o.Validate(); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("dpi=0 err=%v", err)
	}
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestOptions_Timing(t *testing.T) {
	o := Options{FigSize: 5, FrameShare: 0.25, DPI: 80}
	if got := o.Stride(); got != 4 {
		t.Fatalf("stride=%d want 4", got)
	}
	if got := o.FPS(); got != 10 {
		t.Fatalf("fps=%v want 10", got)
	}
	if got := o.Delay(); got != 10 {
		t.Fatalf("delay=%d want 10", got)
	}
	if got := Defaults().Delay(); got != 3 {
		t.Fatalf("default delay=%d want 3", got)
	}
}

func TestRender_FramesFollowStride(t *testing.T) {
	bg := []orb.LineString{{{18.07, 59.33}, {18.071, 59.33}}}

	g, err := Render(sampleTrail(), bg, smallOpts())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(g.Image) != 6 || len(g.Delay) != 6 {
		t.Fatalf("frames=%d delays=%d want 6", len(g.Image), len(g.Delay))
	}
	if g.LoopCount != 0 {
		t.Fatalf("loop=%d want forever", g.LoopCount)
	}
	if b := g.Image[0].Bounds(); b.Dx() != 40 || b.Dy() != 40 {
		t.Fatalf("bounds=%v want 40x40", b)
	}

	half := smallOpts()
	half.FrameShare = 0.5
	g, err = Render(sampleTrail(), nil, half)
	if err != nil {
		t.Fatalf("Render half: %v", err)
	}
	if len(g.Image) != 3 {
		t.Fatalf("frames=%d want 3", len(g.Image))
	}
}

func TestRender_Errors(t *testing.T) {
	if _, err := Render(nil, nil, smallOpts()); !errors.Is(err, ErrEmptyTrail) {
		t.Fatalf("err=%v want ErrEmptyTrail", err)
	}
	bad := smallOpts()
	bad.FrameShare = 2
	if _, err := Render(sampleTrail(), nil, bad); !errors.Is(err, ErrInvalidFrameShare) {
		t.Fatalf("err=%v want ErrInvalidFrameShare", err)
	}
}

func TestWrite_DecodesAsGIF(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleTrail(), nil, smallOpts()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(g.Image) != 6 {
		t.Fatalf("frames=%d", len(g.Image))
	}

	path := filepath.Join(t.TempDir(), "t.gif")
	if err := WriteFile(path, sampleTrail(), nil, smallOpts()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got := DefaultPath("Gamla stan"); got != "./Gamla stan.gif" {
		t.Fatalf("DefaultPath=%q", got)
	}
}

func TestWriteFile_FailedEncodeKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.gif")
	if err := os.WriteFile(path, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	// no frames: EncodeAll rejects it
	if err := writeGIF(path, &gif.GIF{}); err == nil {
		t.Fatal("expected encode error")
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "previous" {
		t.Fatalf("existing file changed: %q err=%v", got, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	if err := WriteFile(path, sampleTrail(), nil, smallOpts()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind after success: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := gif.DecodeAll(f); err != nil {
		t.Fatalf("decode written gif: %v", err)
	}

	if err := WriteFile(filepath.Join(dir, "missing", "x.gif"), sampleTrail(), nil, smallOpts()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
