package tui

import (
	"io"
	"strings"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/muesli/termenv"
)

// NewViewFormatter returns a formatter that prints views with the color
// profile of w: a faint annotation, a bold display (red on error) and
// indicator badges for radians and memory.
func NewViewFormatter(w io.Writer) func(domain.View) string {
	out := termenv.NewOutput(w)
	return func(v domain.View) string {
		var b strings.Builder
		if v.Annotation != "" {
			b.WriteString(out.String(v.Annotation).Faint().String())
			b.WriteByte('\n')
		}

		display := out.String(v.Display).Bold()
		if v.Error {
			display = display.Foreground(out.Color("#f87171"))
		}
		b.WriteString(display.String())

		if v.AngleMode == domain.Radians {
			b.WriteString(" ")
			b.WriteString(out.String(" RAD ").Reverse().String())
		}
		if v.Memory != 0 {
			b.WriteString(" ")
			b.WriteString(out.String(" M ").Reverse().String())
		}
		if v.Notice != "" {
			b.WriteByte('\n')
			b.WriteString(out.String(v.Notice).Italic().String())
		}
		return b.String()
	}
}
