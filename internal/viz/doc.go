// Package viz renders completed buck converter waveforms in the terminal.
//
// Everything here reads a finished [experiment.Waveform] and never drives
// the simulation:
//
//   - [PlotWaveform]: asciigraph chart of vout or iL with the Voutmed line
//   - [Summary]: lipgloss box of parameters and run figures
//   - [Replay]: Bubble Tea model that reveals a waveform over time
//
// # Key Bindings
//
//	Space - Pause/Resume replay
//	R     - Restart from t = 0
//	+/-   - Replay speed
//	Up/Dn - Duty ratio (re-simulates)
//	S     - Switch between vout and iL
//	T     - Cycle color themes
//	Q     - Quit
package viz
