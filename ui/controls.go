package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// MaxStepsPerUpdate bounds the steps-per-frame slider.
const MaxStepsPerUpdate = 20

// ControlActions reports what the user did with the controls this frame.
type ControlActions struct {
	Reset       bool
	TogglePause bool
	Steps       int // Requested ticks per frame
}

// ControlsPanel renders the raygui buttons and speed slider.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Height returns the panel height in pixels.
func (c *ControlsPanel) Height() int32 {
	return c.renderer.Theme.Padding*3 + 30 + 20 + c.renderer.Theme.LineHeight
}

// Draw renders the panel and returns the actions taken. steps is the current
// steps-per-frame value shown on the slider.
func (c *ControlsPanel) Draw(paused bool, steps int) ControlActions {
	r := c.renderer
	padding := r.Theme.Padding
	actions := ControlActions{Steps: steps}

	r.DrawPanel(c.x, c.y, c.width, c.Height())

	x := float32(c.x + padding)
	y := float32(c.y + padding)
	buttonW := float32(c.width-padding*3) / 2

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: buttonW, Height: 30}, "Reset") {
		actions.Reset = true
	}
	pauseLabel := "Pause"
	if paused {
		pauseLabel = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x + buttonW + float32(padding), Y: y, Width: buttonW, Height: 30}, pauseLabel) {
		actions.TogglePause = true
	}
	y += 30 + float32(padding)

	rl.DrawText(fmt.Sprintf("Steps per frame: %d", steps), int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += float32(r.Theme.LineHeight)

	newSteps := gui.SliderBar(
		rl.Rectangle{X: x + 10, Y: y, Width: float32(c.width-padding*2) - 40, Height: 20},
		"1", fmt.Sprintf("%d", MaxStepsPerUpdate),
		float32(steps), 1, MaxStepsPerUpdate,
	)
	if s := int(newSteps + 0.5); s != steps {
		actions.Steps = ClampSteps(s)
	}

	return actions
}

// ClampSteps restricts a steps-per-frame value to [1, MaxStepsPerUpdate].
func ClampSteps(steps int) int {
	if steps < 1 {
		return 1
	}
	if steps > MaxStepsPerUpdate {
		return MaxStepsPerUpdate
	}
	return steps
}
