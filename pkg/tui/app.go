// Package tui provides the interactive request builder.
//
// File organization:
// - app.go: Entry point (Run function)
// - model.go: Model struct and message types
// - init.go: Model initialization
// - parse.go: "[METHOD] URL" input parsing
// - update.go: Event handling and state updates
// - view.go: Rendering and display logic
// - keys.go: Keyboard input handling
// - styles.go: Visual styling
// - highlight.go: JSON syntax highlighting
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the request builder and blocks until the user quits.
func Run(opts Options) error {
	prog := tea.NewProgram(NewModel(opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := prog.Run()
	return err
}
