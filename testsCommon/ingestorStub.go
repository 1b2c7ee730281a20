package testsCommon

import (
	"github.com/careertrack/metrics-engine/common"
)

// IngestorStub -
type IngestorStub struct {
	RecordHandler      func(name string, value float64, tags map[string]string, recordedAt int64)
	RecordErrorHandler func(entry common.ErrorLogEntry)
	CloseHandler       func() error
}

// Record -
func (stub *IngestorStub) Record(name string, value float64, tags map[string]string, recordedAt int64) {
	if stub.RecordHandler != nil {
		stub.RecordHandler(name, value, tags, recordedAt)
	}
}

// RecordError -
func (stub *IngestorStub) RecordError(entry common.ErrorLogEntry) {
	if stub.RecordErrorHandler != nil {
		stub.RecordErrorHandler(entry)
	}
}

// Close -
func (stub *IngestorStub) Close() error {
	if stub.CloseHandler != nil {
		return stub.CloseHandler()
	}

	return nil
}

// IsInterfaceNil -
func (stub *IngestorStub) IsInterfaceNil() bool {
	return stub == nil
}
