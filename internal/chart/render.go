package chart

import (
	"context"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	colorBackground    = "#060c1b"
	colorTextPrimary   = "#eceff4"
	colorTextSecondary = "#9ca3af"
	colorUp            = "#34d399"
	colorDown          = "#f87171"

	chartWidthPx  = 1200
	chartHeightPx = 520
)

// Render writes a self-contained HTML page with the close price line of
// ticker over period.
func (s *Service) Render(ctx context.Context, ticker, period string, w io.Writer) error {
	h, err := s.History(ctx, ticker, period)
	if err != nil {
		return err
	}
	return renderLine(h, w)
}

func renderLine(h History, w io.Writer) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       fmt.Sprintf("%s %s", h.Ticker, h.Period),
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", chartHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         fmt.Sprintf("%s (%s)", h.Name, h.Ticker),
			Subtitle:      fmt.Sprintf("%.2f %s  %+.2f%%", h.CurrentPrice, h.Currency, h.ChangePercent),
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
	)
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	xs := make([]string, 0, len(h.Points))
	ys := make([]opts.LineData, 0, len(h.Points))
	for _, p := range h.Points {
		xs = append(xs, p.Date)
		ys = append(ys, opts.LineData{Value: p.Price})
	}
	color := colorUp
	if len(h.Points) > 1 && h.Points[len(h.Points)-1].Price < h.Points[0].Price {
		color = colorDown
	}
	line.SetXAxis(xs)
	line.AddSeries("Close", ys, charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 2}))

	page := components.NewPage()
	page.AddCharts(line)
	return page.Render(w)
}
