// Package viz renders ensembles for the terminal: quantile band plots drawn
// with asciigraph and lipgloss-styled summary tables.
package viz
