// Package viz renders march results in the terminal.
//
// Static views are built on asciigraph:
//
//   - [ProfilePlot]: numerical and analytical profiles at one snapshot
//   - [SeriesPlot]: a scalar series along x, optionally on a log10 scale
//
// [Browser] is a Bubble Tea program for stepping through every snapshot of a
// stored run, drawn on a Braille [Canvas].
//
// # Key Bindings
//
//	←/→ or [/] - Previous/next snapshot
//	Home/End   - First/last snapshot
//	PgUp/PgDn  - Jump by a tenth of the march
//	Space      - Play/pause
//	T          - Cycle color themes
//	?          - Show help overlay
//	Q          - Quit
package viz
