package main

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// display shows a title and a scrolling list of lines on a tcell screen.
// It doubles as the log writer while the screen is active.
type display struct {
	mu     sync.Mutex
	screen tcell.Screen
	title  string
	lines  []string
	max    int
}

func newDisplay(screen tcell.Screen, title string) *display {
	d := &display{screen: screen, title: title, max: 200}
	d.draw()
	return d
}

func (d *display) printf(format string, args ...any) {
	d.mu.Lock()
	d.lines = append(d.lines, fmt.Sprintf(format, args...))
	if len(d.lines) > d.max {
		d.lines = d.lines[len(d.lines)-d.max:]
	}
	d.mu.Unlock()
	d.draw()
}

// Write implements io.Writer, one line per log record.
func (d *display) Write(p []byte) (int, error) {
	d.printf("%s", bytes.TrimSpace(p))
	return len(p), nil
}

func (d *display) draw() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.screen.Clear()
	_, height := d.screen.Size()

	bold := tcell.StyleDefault.Bold(true)
	d.put(0, d.title, bold)

	visible := d.lines
	if room := height - 2; room >= 0 && len(visible) > room {
		visible = visible[len(visible)-room:]
	}
	for i, line := range visible {
		d.put(i+2, line, tcell.StyleDefault)
	}
	d.screen.Show()
}

func (d *display) put(y int, s string, style tcell.Style) {
	x := 0
	for _, r := range s {
		d.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
