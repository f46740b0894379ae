package display

import (
	"fmt"
	"io"

	"github.com/backmassage/muxconv/internal/term"
)

// PrintBanner prints the ASCII art banner and version line to w; uses
// Magenta if colors are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, ` _ __ ___  _   ___  __ ___ ___  _ ____   __
| '_ `+"`"+` _ \| | | \ \/ // __/ _ \| '_ \ \ / /
| | | | | | |_| |>  <| (_| (_) | | | \ V /
|_| |_| |_|\__,_/_/\_\\___\___/|_| |_|\_/
`)
	fmt.Fprint(w, term.NC)
	fmt.Fprintf(w, "muxconv v%s\n\n", version)
}
