package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/mattn/go-isatty"
)

// Color modes for human-readable output.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ValidColorModes lists the accepted --color values.
var ValidColorModes = []string{ColorAuto, ColorAlways, ColorNever}

// DefaultStyle is the chroma style used for highlighted JSON.
const DefaultStyle = "monokai"

func validateColorMode(mode string) error {
	if !slices.Contains(ValidColorModes, mode) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid color mode %q: must be one of %v", mode, ValidColorModes))
	}
	return nil
}

// useColor reports whether output to w should carry terminal colors.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// highlightJSON returns src with terminal color escapes for the named chroma
// style. Unknown styles fall back to chroma's default.
func highlightJSON(src, style string) (string, error) {
	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	it, err := lexer.Tokenise(nil, src)
	if err != nil {
		return "", err
	}
	tokens := it.Tokens()
	if !strings.HasSuffix(src, "\n") {
		// lexers may append a newline to the last token
		for i := len(tokens) - 1; i >= 0; i-- {
			trimmed := strings.TrimSuffix(tokens[i].Value, "\n")
			if trimmed == tokens[i].Value {
				break
			}
			tokens[i].Value = trimmed
			if trimmed != "" {
				break
			}
		}
	}
	var b strings.Builder
	if err := formatter.Format(&b, styles.Get(style), chroma.Literator(tokens...)); err != nil {
		return "", err
	}
	return b.String(), nil
}
