package reports

import (
	"fmt"
)

// NewReportGenerator creates a report generator based on the report type.
func NewReportGenerator(reportType ReportType, src ReportSource) (Generator, error) {
	switch reportType {
	case ReportTypeAssignments:
		return NewAssignmentReport(src), nil
	case ReportTypeCapacity:
		return NewCapacityReport(src), nil
	default:
		return nil, fmt.Errorf("unknown report type: %s", reportType)
	}
}
