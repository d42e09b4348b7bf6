package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`    _    ____    _    ____ _   _ ____  `, "#34d399"},
	{`   / \  | __ )  / \  / ___| | | / ___| `, "#2dd4bf"},
	{`  / _ \ |  _ \ / _ \| |   | | | \___ \ `, "#22d3ee"},
	{` / ___ \| |_) / ___ \ |___| |_| |___) |`, "#38bdf8"},
	{`/_/   \_\____/_/   \_\____|\___/|____/ `, "#60a5fa"},
}

// PrintBanner writes the Abacus banner and version to w.
// Colors degrade to the terminal's profile (none when w is not a terminal).
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  scientific calculator "+version+" · type help").Faint())
	fmt.Fprintln(w)
}
