// Package analysis runs the TRPL analysis workflows on stored datasets.
//
// A workflow is addressed by name through an Engine and receives a Params
// value that mirrors the parameter cell of the corresponding lab notebook:
//
//	carrier_relaxation  file, outputdir, wavelength_range, dump_csv
//	spin_relaxation     RR, RL, outputdir, wavelength_range, dump_csv
//
// Results come back as a Report; CSV files are written unless DumpCSV is
// explicitly false.
package analysis
