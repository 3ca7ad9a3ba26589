package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/client"
	"github.com/rmax-ai/schedgraph/pkg/domain"
	"github.com/rmax-ai/schedgraph/pkg/instance"
	"github.com/rmax-ai/schedgraph/pkg/mcp"
	"github.com/rmax-ai/schedgraph/pkg/reports"
)

var (
	Version   = "v1.0.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const usage = `Usage: schedgraph [-url URL] <command> [args]

Commands:
  summary                     counts, periods, technicians and work orders
  assignments [-active] [-format json|csv] <period>
                              assignments touching a period (YYYY-MM-DD)
  capacity [-format json|csv] <period>
                              technician hours available in a period
  work-order <number>         activities, exclusions and parameter of a work order
  validate <instance.json>    build an instance file offline and report errors
  mcp                         serve the Model Context Protocol on stdio
  version                     print build information
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	endpoint := os.Getenv("SCHEDGRAPH_URL")
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8091"
	}

	fs := flag.NewFlagSet("schedgraph", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	url := fs.String("url", endpoint, "schedgraph-d base URL")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	c := client.NewClient(*url)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	var err error
	switch cmd {
	case "summary":
		var summary client.Summary
		if summary, err = c.Summary(ctx); err == nil {
			err = printJSON(stdout, summary)
		}
	case "assignments":
		err = runAssignments(ctx, c, rest, stdout)
	case "capacity":
		err = runCapacity(ctx, c, rest, stdout)
	case "work-order":
		if len(rest) != 1 {
			err = fmt.Errorf("work-order needs exactly one number")
			break
		}
		n, perr := strconv.ParseUint(rest[0], 10, 64)
		if perr != nil {
			err = fmt.Errorf("invalid work order number %q", rest[0])
			break
		}
		var wo client.WorkOrder
		if wo, err = c.WorkOrder(ctx, domain.WorkOrderNumber(n)); err == nil {
			err = printJSON(stdout, wo)
		}
	case "validate":
		err = runValidate(rest, stdout)
	case "mcp":
		err = mcp.NewServer(*url).Serve()
	case "version":
		fmt.Fprintf(stdout, "schedgraph %s (commit %s, built %s)\n", Version, Commit, BuildTime)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runAssignments(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("assignments", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	active := fs.Bool("active", false, "leave out retracted assignments")
	format := fs.String("format", string(reports.ReportFormatJSON), "output format: json or csv")
	if err := fs.Parse(args); err != nil {
		return err
	}
	period, err := periodArg(fs.Args())
	if err != nil {
		return err
	}
	params := reports.ReportParams{Period: period, Active: *active}
	switch reports.ReportFormat(*format) {
	case reports.ReportFormatCSV:
		return writeReport(ctx, c, reports.ReportTypeAssignments, params, stdout)
	case reports.ReportFormatJSON:
		resp, err := c.Assignments(ctx, period, *active)
		if err != nil {
			return err
		}
		return printJSON(stdout, resp)
	}
	return fmt.Errorf("unknown format %q", *format)
}

func runCapacity(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("capacity", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	format := fs.String("format", string(reports.ReportFormatJSON), "output format: json or csv")
	if err := fs.Parse(args); err != nil {
		return err
	}
	period, err := periodArg(fs.Args())
	if err != nil {
		return err
	}
	switch reports.ReportFormat(*format) {
	case reports.ReportFormatCSV:
		return writeReport(ctx, c, reports.ReportTypeCapacity, reports.ReportParams{Period: period}, stdout)
	case reports.ReportFormatJSON:
		capacity, err := c.Capacity(ctx, period)
		if err != nil {
			return err
		}
		return printJSON(stdout, capacity)
	}
	return fmt.Errorf("unknown format %q", *format)
}

func writeReport(ctx context.Context, c *client.Client, rt reports.ReportType, params reports.ReportParams, stdout io.Writer) error {
	gen, err := reports.NewReportGenerator(rt, c)
	if err != nil {
		return err
	}
	r, err := gen.Generate(ctx, params)
	if err != nil {
		return err
	}
	_, err = io.Copy(stdout, r)
	return err
}

func runValidate(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("validate needs exactly one instance file")
	}
	inst, err := instance.Load(args[0])
	if err != nil {
		return err
	}
	res, err := instance.Build(inst, instance.BuildOptions{})
	if err != nil {
		return err
	}
	summary := res.Graph.Summary()
	fmt.Fprintf(stdout, "ok: %d nodes, %d edges, %d periods, %d work orders, %d technicians\n",
		summary.Nodes, summary.Edges, len(res.Graph.Periods()), len(res.Graph.WorkOrders()), len(res.Graph.Technicians()))
	return nil
}

func periodArg(args []string) (domain.Period, error) {
	if len(args) != 1 {
		return domain.Period{}, fmt.Errorf("expected exactly one period (YYYY-MM-DD)")
	}
	return domain.ParsePeriod(args[0])
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
