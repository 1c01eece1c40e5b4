package display

import (
	"fmt"
	"io"

	"github.com/backmassage/magickbatch/internal/term"
)

const banner = `                        _        _           _       _
 _ __ ___   __ _  __ _(_) ___| | __ | |__   __ _| |_ ___| |__
| '_ ` + "`" + ` _ \ / _` + "`" + ` |/ _` + "`" + ` | |/ __| |/ / | '_ \ / _` + "`" + ` | __/ __| '_ \
| | | | | | (_| | (_| | | (__|   <  | |_) | (_| | || (__| | | |
|_| |_| |_|\__,_|\__, |_|\___|_|\_\ |_.__/ \__,_|\__\___|_| |_|
                 |___/
`

// PrintBanner writes the ASCII art banner and version; magenta when colours
// are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Paint(term.Magenta, banner))
	fmt.Fprintf(w, "%s\n\n", term.Paint(term.Bold, "magickbatch "+version))
}
