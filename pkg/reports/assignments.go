package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rmax-ai/schedgraph/pkg/client"
)

// AssignmentReport writes one row per assignment touching a period.
type AssignmentReport struct {
	src ReportSource
}

func NewAssignmentReport(src ReportSource) *AssignmentReport {
	return &AssignmentReport{src: src}
}

func (r *AssignmentReport) Generate(ctx context.Context, params ReportParams) (io.Reader, error) {
	resp, err := r.src.Assignments(ctx, params.Period, params.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	headers := []string{"edge_id", "period", "technician", "activity", "days", "shift", "retracted"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	for _, a := range resp.Assignments {
		shift := ""
		if a.Shift != nil {
			shift = a.Shift.String()
		}
		row := []string{
			strconv.Itoa(a.ID),
			resp.Period.String(),
			a.Technician(),
			strings.Join(members(a, "activity"), ";"),
			strings.Join(members(a, "day"), ";"),
			shift,
			strconv.FormatBool(a.Retracted),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush writer: %w", err)
	}
	return buf, nil
}

func members(a client.Assignment, kind string) []string {
	var out []string
	for _, n := range a.Nodes {
		if n.Kind == kind {
			out = append(out, n.Value)
		}
	}
	return out
}
