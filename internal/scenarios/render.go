package scenarios

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
	"github.com/mohammed-shakir/eulerian-streets/internal/export/geojsonout"
	"github.com/mohammed-shakir/eulerian-streets/internal/export/gpx"
	"github.com/mohammed-shakir/eulerian-streets/internal/pipeline"
)

// PipelineRequest turns a parsed HTTP request into a pipeline run that
// writes no files.
func PipelineRequest(q model.TrailRequest, h3Res int) pipeline.Request {
	return pipeline.Request{
		Query:   q.Query,
		Network: q.Network,
		Mode:    q.Mode,
		Start:   q.Start,
		H3Res:   h3Res,
	}
}

// Encode renders the trail in the requested format.
func Encode(f model.Format, res pipeline.Result) ([]byte, error) {
	switch f {
	case model.FormatGeoJSON:
		return geojsonout.Marshal(res.Trail, res.Stats.Summary())
	case model.FormatGPX, "":
		var buf bytes.Buffer
		if err := gpx.Write(&buf, res.Trail); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownFormat, f)
	}
}

// WriteTrail writes an encoded trail. A nil stats omits the X-Trail-* headers.
func WriteTrail(w http.ResponseWriter, f model.Format, body []byte, stats *pipeline.Stats, cacheStatus string) {
	h := w.Header()
	h.Set("Content-Type", f.ContentType())
	h.Set("Content-Length", strconv.Itoa(len(body)))
	if cacheStatus != "" {
		h.Set("X-Cache", cacheStatus)
	}
	if stats != nil {
		h.Set("X-Trail-Hops", strconv.Itoa(stats.Hops))
		h.Set("X-Trail-Points", strconv.Itoa(stats.Points))
		h.Set("X-Trail-Length-M", strconv.FormatFloat(stats.LengthM, 'f', 1, 64))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
