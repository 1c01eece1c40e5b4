package pipeline

// RunStats tracks aggregate counters and byte totals across a batch run.
// A job is one (file, format) pair.
type RunStats struct {
	Files       int   `json:"files"`
	Jobs        int   `json:"jobs"`
	Converted   int   `json:"converted"`
	Failed      int   `json:"failed"`
	Collisions  int   `json:"collisions"`
	Mismatched  int   `json:"mismatched"`
	InputBytes  int64 `json:"input_bytes"`
	OutputBytes int64 `json:"output_bytes"`
}

// SpaceSaved returns the byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew. With
// several formats per file the input side is counted once per file.
func (s RunStats) SpaceSaved() int64 {
	return s.InputBytes - s.OutputBytes
}
