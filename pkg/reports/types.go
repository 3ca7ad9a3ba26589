package reports

import (
	"context"
	"io"

	"github.com/rmax-ai/schedgraph/pkg/client"
	"github.com/rmax-ai/schedgraph/pkg/domain"
)

type ReportType string

const (
	ReportTypeAssignments ReportType = "assignments"
	ReportTypeCapacity    ReportType = "capacity"
)

type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatJSON ReportFormat = "json"
)

// ReportParams selects what a generator reads.
type ReportParams struct {
	Period domain.Period
	// Active leaves out retracted assignments.
	Active bool
}

// ReportSource is the read side a report needs; *client.Client satisfies it.
type ReportSource interface {
	Assignments(ctx context.Context, period domain.Period, active bool) (client.Assignments, error)
	Capacity(ctx context.Context, period domain.Period) (client.Capacity, error)
}

type Generator interface {
	Generate(ctx context.Context, params ReportParams) (io.Reader, error)
}
