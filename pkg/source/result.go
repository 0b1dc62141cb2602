package source

// ContextResult is the uniform per-source output record. Exactly one of Data
// and Error is meaningful: Data is nil whenever Error is set. Position in the
// result slice, not SourceID, is the correlation key back to the input.
type ContextResult struct {
	SourceID   string `json:"sourceId"`
	SourceName string `json:"sourceName"`
	Data       any    `json:"data"`
	Error      string `json:"error,omitempty"`
}

// Failed reports whether the fetch behind this result failed.
func (r ContextResult) Failed() bool {
	return r.Error != ""
}
