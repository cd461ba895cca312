// Package spectrum turns a population trajectory into a wavelength by time
// intensity field.
//
// The field is the outer product of a line-shape profile sampled on the
// wavelength axis and the trajectory sampled on the time axis, so every
// time column is the same spectrum scaled by the population at that time.
package spectrum
