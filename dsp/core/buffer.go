package core

// NewPlanar allocates a planar buffer of channels x n samples backed by a
// single contiguous slice.
func NewPlanar(channels, n int) [][]float64 {
	if channels <= 0 || n < 0 {
		return nil
	}

	backing := make([]float64, channels*n)
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = backing[ch*n : (ch+1)*n : (ch+1)*n]
	}

	return out
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// ZeroPlanar zeroes every channel of a planar buffer.
func ZeroPlanar(buf [][]float64) {
	for _, ch := range buf {
		Zero(ch)
	}
}

// CopyPlanar copies src into dst channel by channel and returns the number
// of frames copied.
func CopyPlanar(dst, src [][]float64) int {
	channels := min(len(dst), len(src))
	if channels == 0 {
		return 0
	}

	n := -1
	for ch := range channels {
		c := copy(dst[ch], src[ch])
		if n < 0 || c < n {
			n = c
		}
	}

	return n
}
