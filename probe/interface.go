package probe

// Recorder defines the non-blocking metric write entry point the probe feeds
type Recorder interface {
	// Record buffers a metric point, a zero recordedAt defaults to the current time
	Record(name string, value float64, tags map[string]string, recordedAt int64)

	IsInterfaceNil() bool
}
