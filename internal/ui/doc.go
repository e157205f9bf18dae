// Package ui contains the Bubble Tea program that embeds the mention engine
// in a terminal page with a single-line text field and a rich editor.
//
// Message flow:
//   - Bubble Tea invokes Model.Update with incoming messages, which are routed
//     through a typed handler registry (keys, mouse, window size).
//   - Keys are first dispatched to the focused host as keydown events. The
//     mention controller consumes navigation and selection keys while its
//     menu is open by calling PreventDefault; everything else falls through
//     to the host editing helpers in input.go, which then dispatch input or
//     selectionchange events.
//   - Mouse presses on the popup become click events on the menu surface
//     carrying the row index; presses elsewhere move focus and the caret and
//     reach the document as clicks, which closes menus on outside clicks.
//   - Messages the model has no handler for are offered to the mention
//     registry, which owns asynchronous results and delayed search ticks.
//
// Rendering (view.go) draws the page from the host state and composites each
// visible popup over it at the position the menu controller computed.
package ui
