package ui

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

// Palette wraps strings in ANSI styles. The zero value is Plain.
type Palette struct {
	Enabled bool
}

// Plain never emits escape codes.
var Plain = Palette{}

// Color emits escape codes.
var Color = Palette{Enabled: true}

func (p Palette) wrap(style, s string) string {
	if !p.Enabled {
		return s
	}
	return style + s + ColorReset
}

func (p Palette) Bold(s string) string    { return p.wrap(ColorBold, s) }
func (p Palette) Success(s string) string { return p.wrap(ColorGreen, s) }
func (p Palette) Warn(s string) string    { return p.wrap(ColorYellow, s) }
func (p Palette) Error(s string) string   { return p.wrap(ColorRed, s) }
func (p Palette) Dim(s string) string     { return p.wrap(ColorDim, s) }
