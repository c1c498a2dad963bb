// Package gpx writes trails as GPX track XML.
package gpx

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/beevik/etree"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

// Document builds a <trk> with one <trkseg> holding one <trkpt> per
// coordinate. Duplicated seam points are kept.
func Document(t model.Trail) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	trk := doc.CreateElement("trk")
	seg := trk.CreateElement("trkseg")
	for _, p := range t {
		pt := seg.CreateElement("trkpt")
		pt.CreateAttr("lon", formatCoord(p.Lon()))
		pt.CreateAttr("lat", formatCoord(p.Lat()))
	}
	doc.Indent(2)
	return doc
}

func Write(w io.Writer, t model.Trail) error {
	if _, err := Document(t).WriteTo(w); err != nil {
		return fmt.Errorf("write gpx: %w", err)
	}
	return nil
}

// WriteFile writes to a temporary file first so a failed write never leaves
// a truncated track at path.
func WriteFile(path string, t model.Trail) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create gpx: %w", err)
	}
	if err := Write(f, t); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close gpx: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename gpx: %w", err)
	}
	return nil
}

// DefaultPath mirrors the naming used for other outputs: ./<name>.gpx
func DefaultPath(name string) string {
	return "./" + name + ".gpx"
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
