package ports

import "context"

// ReportSink ships a generated report file somewhere other than the local directory
type ReportSink interface {
	Name() string
	// Deliver uploads the file at path under the given object name
	Deliver(ctx context.Context, path, name string) error
}
