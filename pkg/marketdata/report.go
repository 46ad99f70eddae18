package marketdata

// Status is the outcome of one instrument cycle.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// InstrumentResult is the explicit outcome of fetching and packaging one instrument.
type InstrumentResult struct {
	Instrument  Instrument
	Status      Status
	RowsWritten int
	// OutputPath is the archive path on success.
	OutputPath string
	// ParquetPath is set when the parquet copy was written.
	ParquetPath string
	// SkipReason explains a skipped or failed instrument.
	SkipReason string
	Err        error
}

// Report collects the results of a run in execution order.
type Report struct {
	Results []InstrumentResult
	// Cancelled is true when the context ended before every instrument ran.
	Cancelled bool
}

func (r Report) count(status Status) int {
	n := 0

	for _, result := range r.Results {
		if result.Status == status {
			n++
		}
	}

	return n
}

// Succeeded returns the number of instruments written.
func (r Report) Succeeded() int {
	return r.count(StatusSuccess)
}

// Skipped returns the number of instruments without data.
func (r Report) Skipped() int {
	return r.count(StatusSkipped)
}

// Failed returns the number of instruments whose fetch or packaging failed.
func (r Report) Failed() int {
	return r.count(StatusFailed)
}
