package pipeline

import (
	"encoding/json"
	"time"

	"github.com/topolens/topolens/pkg/errors"
	"github.com/topolens/topolens/pkg/export"
	"github.com/topolens/topolens/pkg/scene"
	"github.com/topolens/topolens/pkg/scene/sink"
	"github.com/topolens/topolens/pkg/topo"
	"github.com/topolens/topolens/pkg/topo/layout"
)

// renderFromLayout produces every requested artifact for one layout.
func renderFromLayout(lay layout.Layout, g *topo.Graph, opts Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(opts.Formats))

	var svg []byte
	needSVG := func() []byte {
		if svg == nil {
			svg = renderStaticSVG(g, opts)
		}
		return svg
	}

	for _, format := range opts.Formats {
		switch format {
		case FormatSVG:
			out[format] = needSVG()
		case FormatPNG:
			png, err := sink.ToPNG(needSVG(), opts.Scale)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "convert png")
			}
			out[format] = png
		case FormatDOT:
			out[format] = []byte(export.ToDOT(g, export.Options{Detailed: opts.Detailed}))
		case FormatJSON:
			data, err := marshalJSON(lay)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout")
			}
			out[format] = data
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %q", format)
		}
	}
	return out, nil
}

// renderStaticSVG draws one frame of the scene at the home camera. The
// clock is pinned so pulsing vms render at a fixed phase and identical
// inputs produce identical bytes.
func renderStaticSVG(g *topo.Graph, opts Options) []byte {
	eng := scene.New(scene.DefaultConfig(), opts.theme(), scene.Callbacks{})
	eng.SetClock(func() time.Time { return time.Unix(0, 0) })
	eng.SetGraph(*g)
	eng.Resize(float64(opts.Width), float64(opts.Height), 1)

	c := sink.NewSVG(float64(opts.Width), float64(opts.Height))
	eng.Frame(c)
	return c.Bytes()
}

func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

func unmarshalJSON(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
