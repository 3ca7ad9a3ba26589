package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rmax-ai/schedgraph/pkg/domain"
)

// CapacityReport writes one row per technician and skill, plus a "total"
// row per skill for the whole period.
type CapacityReport struct {
	src ReportSource
}

func NewCapacityReport(src ReportSource) *CapacityReport {
	return &CapacityReport{src: src}
}

func (r *CapacityReport) Generate(ctx context.Context, params ReportParams) (io.Reader, error) {
	capacity, err := r.src.Capacity(ctx, params.Period)
	if err != nil {
		return nil, fmt.Errorf("failed to query capacity: %w", err)
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write([]string{"period", "technician", "skill", "hours"}); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	period := capacity.Period.String()
	write := func(tech, skill string, hours domain.Work) error {
		return writer.Write([]string{period, tech, skill, strconv.FormatFloat(float64(hours), 'f', -1, 64)})
	}

	for _, res := range capacity.Resources {
		tech := strconv.FormatUint(uint64(res.ID), 10)
		for _, skill := range domain.Skills() {
			hours, ok := res.SkillHours[skill]
			if !ok {
				continue
			}
			if err := write(tech, skill.String(), hours); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}
	for _, skill := range domain.Skills() {
		hours, ok := capacity.SkillHours[skill]
		if !ok {
			continue
		}
		if err := write("total", skill.String(), hours); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush writer: %w", err)
	}
	return buf, nil
}
