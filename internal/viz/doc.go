// Package viz provides the live terminal view of the bucket.
//
// [Model] is a Bubble Tea program that advances the ensemble once per
// tick and draws the longitudinal phase space on a braille [Canvas].
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single turn while paused
//	Tab   - Select slider (phi_s or RF voltage)
//	←/→   - Move slider by one step (H/L: ten steps)
//	+/-   - Zoom the energy axis
//	S     - Save the phase space as SVG
//	R     - Restart from the configuration (same seed)
//	?     - Show help
package viz
