// Package viz renders TRPL datasets in the terminal.
//
// [DecayPlot] and [SpectrumPlot] draw asciigraph line charts of the two
// marginal views of a dataset. [Viewer] is a Bubble Tea model for
// browsing a dataset slice by slice.
//
// # Key Bindings
//
//	←/→ h/l - Move the time cursor
//	↑/↓ k/j - Move the wavelength cursor
//	Tab     - Switch between spectrum and decay view
//	T       - Cycle color themes
//	?       - Show help overlay
//	Q       - Quit
package viz
