package ports

import (
	"context"

	"futuresregime/internal/domain"
)

// ReportSink persists a RegimeReport. The core makes no assumption about
// the sink beyond that it accepts the record.
type ReportSink interface {
	Save(ctx context.Context, report domain.RegimeReport) error
}
