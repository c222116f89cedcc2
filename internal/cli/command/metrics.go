package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/meterd/internal/cli/connection"
	"github.com/yndnr/meterd/internal/cli/output"
	"github.com/yndnr/meterd/internal/core/aggregate"
	"github.com/yndnr/meterd/internal/core/health"
	"github.com/yndnr/meterd/internal/core/service"
	"github.com/yndnr/meterd/pkg/meter"
)

// Metric family names shown in the FAMILY column.
const (
	familyInternal = "internal"
	familyAPI      = "api"
)

// MetricsCommand returns the metrics subcommand group.
func MetricsCommand() *cli.Command {
	resetFlag := &cli.BoolFlag{
		Name:  "reset",
		Usage: "Clear the family after reading it (requires the admin key when configured)",
	}

	return &cli.Command{
		Name:    "metrics",
		Aliases: []string{"m"},
		Usage:   "Read metric snapshots",
		Subcommands: []*cli.Command{
			{
				Name:  "all",
				Usage: "Show process health and both metric families",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Clear both families after reading them",
					},
					&cli.BoolFlag{
						Name:  "reset-internal",
						Usage: "Clear the internal family after reading it",
					},
					&cli.BoolFlag{
						Name:  "reset-api",
						Usage: "Clear the API family after reading it",
					},
				},
				Action: metricsAll,
			},
			{
				Name:   "process",
				Usage:  "Show process health",
				Action: metricsProcess,
			},
			{
				Name:   "internal",
				Usage:  "Show the internal operation family",
				Flags:  []cli.Flag{resetFlag},
				Action: metricsInternal,
			},
			{
				Name:   "api",
				Usage:  "Show the API request family",
				Flags:  []cli.Flag{resetFlag},
				Action: metricsAPI,
			},
		},
	}
}

// metricsQuery builds the query string of a snapshot read.
func metricsQuery(params map[string]bool) string {
	q := url.Values{}
	for k, v := range params {
		if v {
			q.Set(k, "true")
		}
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func metricsAll(c *cli.Context) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	path := "/v1/metrics" + metricsQuery(map[string]bool{
		"reset":         c.Bool("reset"),
		"resetInternal": c.Bool("reset-internal"),
		"resetApi":      c.Bool("reset-api"),
	})

	var report service.Report
	if err := client.GetJSON(ctx, path, &report); err != nil {
		return err
	}

	return render(c, flags, report, func(w io.Writer) error {
		if err := processTable(report.Process, flags.Wide).Render(w); err != nil {
			return err
		}
		t := output.NewTable(flags.Wide, meterHeaders(true)...)
		addSectionRows(t, familyInternal, report.InternalMetrics)
		addGroupRows(t, familyAPI, "", report.APIMetrics)
		if len(t.Rows) == 0 {
			_, err := fmt.Fprintln(w, "\nno metrics recorded")
			return err
		}
		t.SortRows()
		fmt.Fprintln(w)
		return t.Render(w)
	})
}

func metricsProcess(c *cli.Context) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	var snap health.Snapshot
	if err := client.GetJSON(ctx, "/v1/metrics/process", &snap); err != nil {
		return err
	}

	return render(c, flags, snap, func(w io.Writer) error {
		return processTable(snap, flags.Wide).Render(w)
	})
}

func metricsInternal(c *cli.Context) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	var section aggregate.Section
	path := "/v1/metrics/internal" + metricsQuery(map[string]bool{"reset": c.Bool("reset")})
	if err := client.GetJSON(ctx, path, &section); err != nil {
		return noData(c, err)
	}

	return render(c, flags, section, func(w io.Writer) error {
		t := output.NewTable(flags.Wide, meterHeaders(false)...)
		addSectionRows(t, "", section)
		t.SortRows()
		return t.Render(w)
	})
}

func metricsAPI(c *cli.Context) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	var group aggregate.Group
	path := "/v1/metrics/api" + metricsQuery(map[string]bool{"reset": c.Bool("reset")})
	if err := client.GetJSON(ctx, path, &group); err != nil {
		return noData(c, err)
	}

	return render(c, flags, group, func(w io.Writer) error {
		t := output.NewTable(flags.Wide, meterHeaders(false)...)
		addGroupRows(t, "", "", group)
		t.SortRows()
		return t.Render(w)
	})
}

// noData turns an absent family into a notice instead of an error.
func noData(c *cli.Context, err error) error {
	if errors.Is(err, connection.ErrNoContent) {
		_, werr := fmt.Fprintln(stderr(c), "no data")
		return werr
	}
	return err
}

func meterHeaders(withFamily bool) []string {
	h := []string{"SOURCE", "DIMENSION", "VALUE", "COUNT", "MEAN", "1M", "5M", "15M"}
	if withFamily {
		return append([]string{"FAMILY"}, h...)
	}
	return h
}

func addSectionRows(t *output.Table, family string, s aggregate.Section) {
	for source, g := range s {
		addGroupRows(t, family, source, g)
	}
}

func addGroupRows(t *output.Table, family, source string, g aggregate.Group) {
	if source == "" {
		source = "-"
	}
	for dim, values := range g {
		for value, leaf := range values {
			row := meterRow(source, dim, value, leaf.Meter)
			if family != "" {
				row = append([]string{family}, row...)
			}
			t.AddRow(row...)
		}
	}
}

func meterRow(source, dim, value string, r meter.Reading) []string {
	return []string{
		source,
		dim,
		value,
		strconv.FormatUint(r.Count, 10),
		formatRate(r.Mean),
		formatRate(r.M1),
		formatRate(r.M5),
		formatRate(r.M15),
	}
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// processTable lists the process indicators that have been sampled.
func processTable(s health.Snapshot, wide bool) *output.Table {
	t := output.NewTable(wide, "METRIC", "VALUE")

	if u := s.Memory.Usage; u != nil {
		if u.RSS > 0 {
			t.AddRow("memory.rss", formatBytes(u.RSS))
		}
		t.AddRow("memory.heapUsed", formatBytes(u.HeapUsed))
		t.AddRow("memory.heapTotal", formatBytes(u.HeapTotal))
		t.AddRow("memory.sys", formatBytes(u.Sys))
		t.AddRow("memory.numGC", strconv.FormatUint(uint64(u.NumGC), 10))
		t.AddRow("memory.goroutines", strconv.Itoa(u.Goroutines))
	}
	if s.Memory.Leak != nil {
		b, err := json.Marshal(s.Memory.Leak)
		if err != nil {
			b = []byte(fmt.Sprint(s.Memory.Leak))
		}
		t.AddRow("memory.leak", string(b))
	}
	if s.EventLoop.Latency != nil {
		t.AddRow("eventLoop.latency", strconv.FormatFloat(*s.EventLoop.Latency, 'f', 3, 64)+"ms")
	}
	if s.CPU.Usage != nil {
		t.AddRow("cpu.usage", strconv.FormatFloat(*s.CPU.Usage, 'f', 2, 64)+"%")
	}
	return t
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatUint(n, 10) + " B"
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
