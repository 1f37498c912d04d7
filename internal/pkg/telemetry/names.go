package telemetry

// Tracer and span names used for instrumentation.
const (
	TracerName = "github.com/samirrijal/dropmap"

	// Pipeline
	SpanMapViewLoad  = "mapview.load"
	SpanSnapshotLoad = "snapshot.load"

	// Transport
	SpanLayerRequest = "http.layer"
	SpanSessionView  = "ws.view"
)
