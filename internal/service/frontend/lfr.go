package frontend

// applyLFR stacks m consecutive frames into one output step every n
// input frames. The sequence is left-padded with copies of the first
// frame so each output step is centered on its stride, and right-padded
// with copies of the last frame when the tail runs short.
func applyLFR(frames [][]float32, m, n int) [][]float32 {
	T := len(frames)
	if T == 0 {
		return nil
	}
	dim := len(frames[0])

	leftPad := (m - 1) / 2
	padded := make([][]float32, 0, leftPad+T)
	for i := 0; i < leftPad; i++ {
		padded = append(padded, frames[0])
	}
	padded = append(padded, frames...)

	outLen := (T + n - 1) / n
	out := make([][]float32, outLen)
	for i := 0; i < outLen; i++ {
		row := make([]float32, 0, m*dim)
		for j := 0; j < m; j++ {
			idx := i*n + j
			if idx >= len(padded) {
				idx = len(padded) - 1
			}
			row = append(row, padded[idx]...)
		}
		out[i] = row
	}
	return out
}
