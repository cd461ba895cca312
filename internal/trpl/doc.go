// Package trpl holds the TRPL dataset: a flattened (time, wavelength,
// intensity) table over a complete rectangular grid.
//
// Rows are time-major: row r holds time index r / W and wavelength index
// r % W, where W is the wavelength count. Every (time, wavelength) pair
// appears exactly once and every intensity is non-negative. Apart from
// Rescale a Dataset is immutable; accessors return copies.
package trpl
