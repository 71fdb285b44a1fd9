package session

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteChart renders the report as a standalone HTML bar chart.
func WriteChart(path string, r *Report) error {
	x := make([]string, 0, len(r.Rows))
	y := make([]opts.BarData, 0, len(r.Rows))
	for _, row := range r.Rows {
		x = append(x, row.State.String())
		y = append(y, opts.BarData{
			Value: roundTenth(row.Seconds),
			Name:  FormatPercent(row.Percent),
		})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Attention session " + r.SessionID,
			Subtitle: fmt.Sprintf("%s, %s total", r.StartedAt.Format(time.RFC3339), FormatSeconds(r.Total)+"s"),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("seconds", y,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)

	page := components.NewPage()
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return persistErr("chart", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return persistErr("chart", path, err)
	}
	return persistErr("chart", path, os.WriteFile(path, buf.Bytes(), 0644))
}

func roundTenth(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
