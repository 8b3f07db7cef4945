package pipeline

// MinMaxScaler rescales each feature column into [0,1] using the min and
// max observed in the current batch only. No statistics persist across
// batches.
type MinMaxScaler struct {
	Min []float64
	Max []float64
}

// FitTransform computes per-column min/max over features and returns a
// rescaled copy; the input rows are not mutated.
//
// A zero-variance column would divide by zero, so every value in such a
// column maps to 0 instead. This keeps degenerate batches (say, all lead
// times identical) trainable without NaNs.
func (s *MinMaxScaler) FitTransform(features [][]float64) [][]float64 {
	if len(features) == 0 {
		return [][]float64{}
	}

	cols := len(features[0])
	s.Min = make([]float64, cols)
	s.Max = make([]float64, cols)
	for j := 0; j < cols; j++ {
		s.Min[j] = features[0][j]
		s.Max[j] = features[0][j]
	}
	for _, row := range features {
		for j, v := range row {
			if v < s.Min[j] {
				s.Min[j] = v
			}
			if v > s.Max[j] {
				s.Max[j] = v
			}
		}
	}

	scaled := make([][]float64, len(features))
	for k, row := range features {
		out := make([]float64, cols)
		for j, v := range row {
			if span := s.Max[j] - s.Min[j]; span > 0 {
				out[j] = (v - s.Min[j]) / span
			}
		}
		scaled[k] = out
	}
	return scaled
}
