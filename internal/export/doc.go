// Package export writes buck converter waveforms to files for viewing
// outside the terminal: static figures through gonum/plot and an
// interactive HTML page through go-echarts.
package export
