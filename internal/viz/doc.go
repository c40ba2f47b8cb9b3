// Package viz is the terminal host: a Bubble Tea program that runs a
// pendulum session and paints the outer bob's path on a braille canvas.
//
// # Key Bindings
//
//	Space - toggle painting
//	P     - pause/resume
//	R     - restart from the initial pose
//	C     - clear the painting
//	+/-   - steps per frame
//	T     - cycle themes
//	S     - save the painting as SVG
//	?     - help
//	Q     - quit
package viz
