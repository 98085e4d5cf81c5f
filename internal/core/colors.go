package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var categoryPalette = [...]string{
	"#014f99",
	"#e11d48",
	"#059669",
	"#dc2626",
	"#7c3aed",
	"#ea580c",
	"#0891b2",
	"#65a30d",
	"#c2410c",
	"#7c2d12",
	"#be185d",
	"#1e40af",
	"#166534",
	"#92400e",
	"#581c87",
}

// PaletteSize is the number of hand-picked category colors.
const PaletteSize = len(categoryPalette)

var (
	goldenAngle = decimal.RequireFromString("137.508")
	fullCircle  = decimal.NewFromInt(360)
)

// CategoryColors returns count color tokens. The first PaletteSize come from the
// curated palette; the rest are hsl() tokens spaced by the golden angle.
func CategoryColors(count int) []string {
	if count <= 0 {
		return []string{}
	}
	out := make([]string, count)
	for i := range out {
		if i < PaletteSize {
			out[i] = categoryPalette[i]
			continue
		}
		hue := decimal.NewFromInt(int64(i)).Mul(goldenAngle).Mod(fullCircle)
		out[i] = fmt.Sprintf("hsl(%s, 75%%, 45%%)", hue.String())
	}
	return out
}
