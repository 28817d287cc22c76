package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	return r.drawLabelValueColor(x, y, label, value, r.Theme.ValueColor)
}

// DrawLabelWarn draws a label and value, highlighting the value when warn is set.
func (r *Renderer) DrawLabelWarn(x, y int32, label, value string, warn bool) int32 {
	c := r.Theme.ValueColor
	if warn {
		c = r.Theme.WarnColor
	}
	return r.drawLabelValueColor(x, y, label, value, c)
}

func (r *Renderer) drawLabelValueColor(x, y int32, label, value string, c rl.Color) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, c)
	return y + r.Theme.LineHeight
}

// DrawRatioBar draws a bar for value/max. Values past max fill the bar in the
// high color.
func (r *Renderer) DrawRatioBar(x, y int32, label string, value, max float64, width int32) int32 {
	ratio := 0.0
	if max > 0 {
		ratio = value / max
	}

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 60

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)

	barColor := r.Theme.BarFillLow
	switch {
	case ratio > 1:
		barColor = r.Theme.BarFillHigh
	case ratio > 0.7:
		barColor = r.Theme.BarFillMedium
	}

	fill := ratio
	if fill > 1 {
		fill = 1
	}
	if fill < 0 {
		fill = 0
	}
	rl.DrawRectangle(barX, y+2, int32(float64(barWidth)*fill), r.Theme.BarHeight, barColor)
	rl.DrawText(fmt.Sprintf("%.0f%%", ratio*100), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}
