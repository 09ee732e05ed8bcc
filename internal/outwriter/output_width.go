package outwriter

import (
	"os"

	"github.com/huangsam/homerank/internal/contract"
	"golang.org/x/term"
)

// Bounds for truncated text cells in table output.
const (
	minTextWidth = 15
	maxTextWidth = 70
)

// GetMaxTableTextWidth calculates the maximum width for text cells (identifiers,
// districts, certificate names) in table output based on the terminal width.
func GetMaxTableTextWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // CI and pipes
		} else {
			termWidth = detectedWidth
		}
	}

	baseWidth := 30 // Rank + Score + Label with borders/padding
	if cfg.Detail {
		baseWidth += 25 // D+ and D-
	}
	baseWidth += 20 // borders and separators

	available := termWidth - baseWidth
	if available < minTextWidth {
		return minTextWidth
	}
	if available > maxTextWidth {
		return maxTextWidth
	}
	return available
}
