package noise

// Counts is a wavelength by time matrix of quantized intensities.
type Counts struct {
	rows, cols int
	data       []int64
}

func NewCounts(rows, cols int) *Counts {
	return &Counts{rows: rows, cols: cols, data: make([]int64, rows*cols)}
}

func (c *Counts) Dims() (int, int) { return c.rows, c.cols }

func (c *Counts) At(i, j int) int64 { return c.data[i*c.cols+j] }

func (c *Counts) Set(i, j int, v int64) { c.data[i*c.cols+j] = v }

func (c *Counts) Max() int64 {
	var mx int64
	for _, v := range c.data {
		mx = max(mx, v)
	}
	return mx
}

func (c *Counts) Sum() int64 {
	var s int64
	for _, v := range c.data {
		s += v
	}
	return s
}
