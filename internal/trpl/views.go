package trpl

import "math"

// FilterWavelength keeps the wavelengths in [lo, hi]. A window that misses
// the axis yields an empty dataset.
func (d *Dataset) FilterWavelength(lo, hi float64) *Dataset {
	var keep []int
	for i, w := range d.wavelengths {
		if w >= lo && w <= hi {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 || len(d.times) == 0 {
		return &Dataset{times: append([]float64(nil), d.times...)}
	}

	nw, kw := len(d.wavelengths), len(keep)
	out := &Dataset{
		times:       append([]float64(nil), d.times...),
		wavelengths: make([]float64, kw),
		intensity:   make([]int64, len(d.times)*kw),
	}
	for k, i := range keep {
		out.wavelengths[k] = d.wavelengths[i]
	}
	for j := range d.times {
		for k, i := range keep {
			out.intensity[j*kw+k] = d.intensity[j*nw+i]
		}
	}
	return out
}

// DecayCurve is the time-resolved signal: per time sample, the sum over
// wavelengths. It is aligned with TimeAxis.
func (d *Dataset) DecayCurve() []float64 {
	if d.Len() == 0 {
		return nil
	}
	nw := len(d.wavelengths)
	out := make([]float64, len(d.times))
	for j := range out {
		var s int64
		for _, v := range d.intensity[j*nw : (j+1)*nw] {
			s += v
		}
		out[j] = float64(s)
	}
	return out
}

// Spectrum is the wavelength-resolved signal: per wavelength, the sum over
// time. It is aligned with WavelengthAxis.
func (d *Dataset) Spectrum() []float64 {
	if d.Len() == 0 {
		return nil
	}
	nw := len(d.wavelengths)
	sums := make([]int64, nw)
	for r, v := range d.intensity {
		sums[r%nw] += v
	}
	out := make([]float64, nw)
	for i, s := range sums {
		out[i] = float64(s)
	}
	return out
}

// PeakWavelength is the wavelength with the largest time-integrated
// intensity, NaN for an empty dataset.
func (d *Dataset) PeakWavelength() float64 {
	spec := d.Spectrum()
	if len(spec) == 0 {
		return math.NaN()
	}
	best := 0
	for i, v := range spec {
		if v > spec[best] {
			best = i
		}
	}
	return d.wavelengths[best]
}
