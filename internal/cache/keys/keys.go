// Package keys builds deterministic cache keys for graphs and trails.
package keys

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

const maxLabelLen = 80

// Graph keys a street network snapshot by where it came from and which
// network filter was applied.
func Graph(q model.Query, network string) string {
	text := normalizeQuery(q)
	return fmt.Sprintf("graph:%s:%s:%s:f=%016x",
		sanitizeForKey(network), q.Kind, label(text), xxhash.Sum64String(network+"|"+text))
}

// Trail keys a finished trail payload. Everything that changes the output
// bytes takes part in the hash.
func Trail(q model.Query, network string, mode model.Mode, start model.Start, format string) string {
	text := normalizeQuery(q)
	full := strings.Join([]string{
		network, string(mode), normalizeStart(start), strings.ToLower(format), text,
	}, "|")
	return fmt.Sprintf("trail:%s:%s:%s:mode=%s:f=%016x",
		sanitizeForKey(strings.ToLower(format)), q.Kind, label(text), mode, xxhash.Sum64String(full))
}

func label(text string) string {
	s := sanitizeForKey(text)
	if len(s) > maxLabelLen {
		s = s[:maxLabelLen]
	}
	return s
}

func normalizeQuery(q model.Query) string {
	switch q.Kind {
	case model.QueryPlace:
		return normalizeText(q.Place)
	case model.QueryBBox:
		return q.BBox.String()
	case model.QueryAddress:
		return normalizeText(q.Address) + "@" + formatFloat(q.Dist)
	case model.QueryFile:
		return strings.TrimSpace(q.Path)
	default:
		return ""
	}
}

func normalizeStart(s model.Start) string {
	switch s.Kind {
	case model.StartNode:
		return "node=" + strconv.FormatInt(int64(s.Node), 10)
	case model.StartPoint:
		return "point=" + formatFloat(s.Point.Lon()) + "," + formatFloat(s.Point.Lat())
	case model.StartAddress:
		return "address=" + normalizeText(s.Address)
	default:
		return "none"
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func normalizeText(s string) string {
	return strings.ToLower(collapseASCIIWhitespace(s))
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-' || r == '.':
			out = r
		default:
			// Any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

// converts any run of ASCII whitespace to a single space.
func collapseASCIIWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wasWS := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' {
			if !wasWS {
				b.WriteByte(' ')
				wasWS = true
			}
			continue
		}
		b.WriteRune(r)
		wasWS = false
	}
	return strings.TrimSpace(b.String())
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
