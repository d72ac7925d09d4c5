// Package telemetry renders engine.Metrics as a human-facing CLI report
// (a color-coded go-pretty table) and logs the same data to a CSV file
// for offline analysis, in the teacher's own append-with-header-once
// style.
package telemetry

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pthm-cable/terrarium/engine"
	"github.com/pthm-cable/terrarium/thermostat"
)

var (
	colorHealthy   = color.New(color.FgGreen).SprintFunc()
	colorUnhealthy = color.New(color.FgYellow).SprintFunc()
	colorCritical  = color.New(color.FgRed, color.Bold).SprintFunc()
)

func colorizeHealth(h thermostat.Health) string {
	switch h {
	case thermostat.Healthy:
		return colorHealthy(h.String())
	case thermostat.Unhealthy:
		return colorUnhealthy(h.String())
	default:
		return colorCritical(h.String())
	}
}

// Reporter prints a periodic snapshot of engine.Metrics to w as two
// go-pretty tables: top-line counters and the per-variable thermostat
// bank.
type Reporter struct {
	w io.Writer
}

// NewReporter builds a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Render writes one report for the given metrics snapshot.
func (r *Reporter) Render(m engine.Metrics) {
	summary := table.NewWriter()
	summary.SetOutputMirror(r.w)
	summary.SetStyle(table.StyleLight)
	summary.SetTitle(fmt.Sprintf("tick %s", humanize.Comma(m.Tick)))
	summary.AppendHeader(table.Row{"metric", "value"})
	summary.AppendRows([]table.Row{
		{"alive particles", humanize.Comma(int64(m.AliveParticles))},
		{"total births", humanize.Comma(m.TotalBirths)},
		{"total deaths", humanize.Comma(m.TotalDeaths)},
		{"structures", humanize.Comma(int64(m.StructureCount))},
		{"communities", humanize.Comma(int64(m.CommunityCount))},
		{"chunks (active/total)", fmt.Sprintf("%s / %s", humanize.Comma(int64(m.ActiveChunkCount)), humanize.Comma(int64(m.ChunkCount)))},
		{"gpu fallbacks", humanize.Comma(m.GPUFallbackCount)},
		{"tick duration p50/p95", fmt.Sprintf("%.2fms / %.2fms", m.TickP50Ms, m.TickP95Ms)},
	})
	summary.Render()

	if len(m.ThermostatReadings) == 0 {
		return
	}
	bank := table.NewWriter()
	bank.SetOutputMirror(r.w)
	bank.SetStyle(table.StyleLight)
	bank.SetTitle("thermostats")
	bank.AppendHeader(table.Row{"variable", "value", "error", "output", "health", "action"})
	for _, reading := range m.ThermostatReadings {
		bank.AppendRow(table.Row{
			reading.Variable,
			fmt.Sprintf("%.3f", reading.Value),
			fmt.Sprintf("%.3f", reading.Error),
			fmt.Sprintf("%+.3f", reading.Output),
			colorizeHealth(reading.Health),
			reading.Action,
		})
	}
	bank.Render()
}
