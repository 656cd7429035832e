package metrics

// Histogram bucket boundaries in seconds, shared so dashboards line up across services.
var (
	HTTPDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	// QueryLatencyBuckets covers article lookups and vector searches.
	QueryLatencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	// EmbeddingLatencyBuckets covers one provider round trip, local or remote.
	EmbeddingLatencyBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	// SourceDurationBuckets covers ingesting a whole document, up to ten minutes.
	SourceDurationBuckets = []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}
)
