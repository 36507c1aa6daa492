package pipeline

const (
	// DefaultModelName is the default Gemini model used for discrepancy explanations.
	DefaultModelName = "gemini-2.5-flash"

	// ReportContentType is the content type of exported reports.
	ReportContentType = "application/json"

	// reportPrefix is the object prefix reports are exported under.
	reportPrefix = "reports"

	// explainNeighbourhood is how many running-balance rows on each side of the
	// discrepancy are shown to the model.
	explainNeighbourhood = 5
)
