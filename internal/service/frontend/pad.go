package frontend

// PadFeats zero-pads each feature matrix along the time axis to the
// batch maximum and returns the stacked batch with the true length
// vector. Content below each item's true length is preserved exactly;
// truncation never occurs.
func PadFeats(feats []Feature) ([][][]float32, []int) {
	maxLen := 0
	for _, f := range feats {
		if f.Length > maxLen {
			maxLen = f.Length
		}
	}

	padded := make([][][]float32, len(feats))
	lengths := make([]int, len(feats))
	for i, f := range feats {
		lengths[i] = f.Length
		dim := 0
		if len(f.Data) > 0 {
			dim = len(f.Data[0])
		}
		item := make([][]float32, maxLen)
		for t := 0; t < maxLen; t++ {
			if t < len(f.Data) {
				item[t] = f.Data[t]
			} else {
				item[t] = make([]float32, dim)
			}
		}
		padded[i] = item
	}
	return padded, lengths
}
