// Package analysis renders an author's message history into the artifacts
// moderators can request from a flagged post: an activity time-series chart,
// a mention graph, and a word-frequency table.
package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robalyx/vigil/internal/history"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoHistory is returned when the author has no data for an artifact.
// Callers skip the artifact instead of failing the whole action.
var ErrNoHistory = errors.New("author has no recorded history")

// Chart dimensions and styling constants control the visual appearance
// of the rendered artifacts.
const (
	// hoursToShow is the number of x-axis ticks to show in the activity chart.
	hoursToShow = 24

	// titleFontSize sets the size of the chart title text.
	titleFontSize = 12.0
	// xAxisFontSize sets the size of x-axis labels.
	xAxisFontSize = 10.0
	// yAxisFontSize sets the size of y-axis labels.
	yAxisFontSize = 12.0
	// xAxisRotation angles x-axis labels to prevent overlap.
	xAxisRotation = 45.0
	// gridLineWidth controls the thickness of grid lines.
	gridLineWidth = 1.0
	// seriesLineWidth controls the thickness of data lines.
	seriesLineWidth = 3.0
	// seriesDotWidth controls the size of data points.
	seriesDotWidth = 4.0
	// barChartHeight is the pixel height of the mention graph.
	barChartHeight = 512
	// barWidth is the pixel width of each mention graph bar.
	barWidth = 60
	// paddingTop adds space above the chart.
	paddingTop = 30
	// paddingBottom adds space below the chart.
	paddingBottom = 30
	// paddingLeft adds space to the left of the chart.
	paddingLeft = 20
	// paddingRight adds space to the right of the chart.
	paddingRight = 20

	// maxMentionBars caps how many mentioned users the graph shows.
	maxMentionBars = 10
	// defaultFrequencyLimit caps how many words the frequency table lists.
	defaultFrequencyLimit = 15
)

// Builder creates history artifacts for a single author.
type Builder struct {
	records []*history.Record
}

// NewBuilder loads an author's records to create a new artifact builder.
func NewBuilder(records []*history.Record) *Builder {
	return &Builder{records: records}
}

// ActivityChart renders per-hour message counts over the trailing 24 hours
// as a PNG line chart.
func (b *Builder) ActivityChart() (*bytes.Buffer, error) {
	if len(b.records) == 0 {
		return nil, ErrNoHistory
	}

	xValues, series := b.prepareActivitySeries()
	gridLines, ticks := b.prepareGridLinesAndTicks()

	graph := &chart.Chart{
		Title:      "Message Activity (24h)",
		TitleStyle: b.getTitleStyle(),
		Background: b.getBackgroundStyle(),
		XAxis:      b.getXAxis(gridLines, ticks),
		YAxis:      b.getYAxis(),
		Series: []chart.Series{
			b.createSeries("Messages", xValues, series, chart.ColorBlue),
		},
	}

	// Add legend below the chart
	graph.Elements = []chart.Renderable{
		chart.Legend(graph),
	}

	// Render chart to PNG format
	buf := new(bytes.Buffer)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("failed to render activity chart: %w", err)
	}

	return buf, nil
}

// MentionGraph renders who the author mentions, and how often, as a PNG bar
// chart. Authors who never mention anyone have no graph.
func (b *Builder) MentionGraph() (*bytes.Buffer, error) {
	counts := make(map[string]int)
	for _, record := range b.records {
		for _, mention := range record.Mentions {
			counts[mention.String()]++
		}
	}

	if len(counts) == 0 {
		return nil, ErrNoHistory
	}

	bars := make([]chart.Value, 0, len(counts))
	for user, count := range counts {
		bars = append(bars, chart.Value{Value: float64(count), Label: user})
	}

	// Highest mention counts first, capped so labels stay readable
	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Value != bars[j].Value {
			return bars[i].Value > bars[j].Value
		}

		return bars[i].Label < bars[j].Label
	})

	if len(bars) > maxMentionBars {
		bars = bars[:maxMentionBars]
	}

	graph := &chart.BarChart{
		Title:      "Mentioned Users",
		TitleStyle: b.getTitleStyle(),
		Background: b.getBackgroundStyle(),
		Height:     barChartHeight,
		BarWidth:   barWidth,
		XAxis: chart.Style{
			FontSize:            xAxisFontSize,
			TextRotationDegrees: xAxisRotation,
		},
		YAxis: b.getYAxis(),
		Bars:  bars,
	}

	buf := new(bytes.Buffer)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("failed to render mention graph: %w", err)
	}

	return buf, nil
}

// FrequencyTable renders the author's most used words as preformatted text.
func (b *Builder) FrequencyTable() (string, error) {
	counts := make(map[string]int)

	for _, record := range b.records {
		for _, word := range strings.Fields(record.Content) {
			word = strings.ToLower(strings.Trim(word, ".,!?;:\"'()[]{}"))
			if word == "" {
				continue
			}

			counts[word]++
		}
	}

	if len(counts) == 0 {
		return "", ErrNoHistory
	}

	type wordCount struct {
		word  string
		count int
	}

	table := make([]wordCount, 0, len(counts))
	for word, count := range counts {
		table = append(table, wordCount{word: word, count: count})
	}

	sort.Slice(table, func(i, j int) bool {
		if table[i].count != table[j].count {
			return table[i].count > table[j].count
		}

		return table[i].word < table[j].word
	})

	if len(table) > defaultFrequencyLimit {
		table = table[:defaultFrequencyLimit]
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-24s %s\n", "WORD", "COUNT"))

	for _, entry := range table {
		sb.WriteString(fmt.Sprintf("%-24s %d\n", entry.word, entry.count))
	}

	return sb.String(), nil
}

// prepareActivitySeries extracts per-hour message counts from the records.
func (b *Builder) prepareActivitySeries() ([]float64, []float64) {
	xValues := make([]float64, hoursToShow)
	series := make([]float64, hoursToShow)

	// Count messages per truncated hour for lookup
	counts := make(map[time.Time]int)
	for _, record := range b.records {
		counts[record.Timestamp.UTC().Truncate(time.Hour)]++
	}

	// Fill in data points for each hour
	now := time.Now().UTC().Truncate(time.Hour)

	for i := range hoursToShow {
		xValues[i] = float64(i)
		timestamp := now.Add(time.Duration(-(hoursToShow - 1 - i)) * time.Hour)
		series[i] = float64(counts[timestamp])
	}

	return xValues, series
}

// prepareGridLinesAndTicks creates grid lines and x-axis labels.
func (b *Builder) prepareGridLinesAndTicks() ([]chart.GridLine, []chart.Tick) {
	gridLines := make([]chart.GridLine, hoursToShow)
	ticks := make([]chart.Tick, hoursToShow)

	for i := range hoursToShow {
		gridLines[i] = chart.GridLine{Value: float64(i)}

		// Format as hours ago
		hoursAgo := hoursToShow - 1 - i
		label := fmt.Sprintf("%dh ago", hoursAgo)

		ticks[i] = chart.Tick{
			Value: float64(i),
			Label: label,
		}
	}

	return gridLines, ticks
}

// getTitleStyle returns styling for the chart title.
func (b *Builder) getTitleStyle() chart.Style {
	return chart.Style{
		FontSize: titleFontSize,
	}
}

// getBackgroundStyle returns styling for the chart background,
// including padding around all edges.
func (b *Builder) getBackgroundStyle() chart.Style {
	return chart.Style{
		Padding: chart.Box{
			Top:    paddingTop,
			Left:   paddingLeft,
			Right:  paddingRight,
			Bottom: paddingBottom,
		},
	}
}

// getXAxis returns configuration for the x-axis.
func (b *Builder) getXAxis(gridLines []chart.GridLine, ticks []chart.Tick) chart.XAxis {
	return chart.XAxis{
		Style: chart.Style{
			FontSize:            xAxisFontSize,
			TextRotationDegrees: xAxisRotation,
		},
		GridMajorStyle: chart.Style{
			StrokeColor: chart.ColorAlternateGray,
			StrokeWidth: gridLineWidth,
		},
		GridLines:    gridLines,
		Ticks:        ticks,
		TickPosition: chart.TickPositionUnderTick,
	}
}

// getYAxis returns configuration for the y-axis.
func (b *Builder) getYAxis() chart.YAxis {
	return chart.YAxis{
		Style: chart.Style{
			FontSize:            yAxisFontSize,
			TextRotationDegrees: 0.0,
		},
		GridMajorStyle: chart.Style{
			StrokeColor: chart.ColorAlternateGray,
			StrokeWidth: gridLineWidth,
		},
		ValueFormatter: func(v any) string {
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%.0f", f)
			}
			return ""
		},
	}
}

// createSeries builds a line series for the chart.
func (b *Builder) createSeries(name string, xValues, yValues []float64, color drawing.Color) chart.Series {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: xValues,
		YValues: yValues,
		Style: chart.Style{
			StrokeColor: color,
			StrokeWidth: seriesLineWidth,
			DotColor:    color,
			DotWidth:    seriesDotWidth,
		},
	}
}
