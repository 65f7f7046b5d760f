package customerapp

import (
	"context"
	"fmt"
	"io"
	"time"

	"shuttle-track/internal/domain/geo"
)

// terminalCanvas is the terminal stand-in for a map widget: every canvas
// operation becomes one printed line.
type terminalCanvas struct {
	out io.Writer
}

func newTerminalCanvas(out io.Writer) *terminalCanvas {
	return &terminalCanvas{out: out}
}

// Init pretends to load map tiles so the renderer's loading state is real.
func (c *terminalCanvas) Init(ctx context.Context) error {
	select {
	case <-time.After(300 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	fmt.Fprintln(c.out, "[map] ready")
	return nil
}

func (c *terminalCanvas) PlacePickupMarker(p geo.Point) {
	fmt.Fprintf(c.out, "[map] pickup marker at %.5f, %.5f\n", p.Lat, p.Lng)
}

func (c *terminalCanvas) PlaceDriverMarker(p geo.Point) {
	fmt.Fprintf(c.out, "[map] driver marker at %.5f, %.5f\n", p.Lat, p.Lng)
}

func (c *terminalCanvas) MoveDriverMarker(p geo.Point) {
	fmt.Fprintf(c.out, "[map] driver moved to %.5f, %.5f\n", p.Lat, p.Lng)
}

func (c *terminalCanvas) FitBounds(a, b geo.Point) {
	fmt.Fprintf(c.out, "[map] view fits %.5f,%.5f and %.5f,%.5f\n", a.Lat, a.Lng, b.Lat, b.Lng)
}

func (c *terminalCanvas) PanTo(p geo.Point) {
	fmt.Fprintf(c.out, "[map] centered on %.5f, %.5f\n", p.Lat, p.Lng)
}
