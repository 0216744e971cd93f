package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/zsiec/mockingress/internal/model"
)

var (
	summaryTitle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B35")).Bold(true)
	summaryLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#90A4AE")).Width(14)
	summaryValue = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	summaryError = lipgloss.NewStyle().Foreground(lipgloss.Color("#F44336")).Bold(true)
	summaryBox   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#30363D")).
			Padding(0, 1)
)

// renderSummary prints one box per impression.
func renderSummary(impressions []model.Impression) string {
	if len(impressions) == 0 {
		return "No impressions found.\n"
	}

	boxes := lo.Map(impressions, func(imp model.Impression, _ int) string {
		return summaryBox.Render(impressionSummary(imp))
	})

	header := summaryTitle.Render(fmt.Sprintf("%s %s", humanize.Comma(int64(len(impressions))),
		lo.Ternary(len(impressions) == 1, "impression", "impressions")))
	return header + "\n" + strings.Join(boxes, "\n") + "\n"
}

func impressionSummary(imp model.Impression) string {
	events := imp.EventDataList

	var played int64
	for _, e := range events {
		played += e.Played
	}

	errorCodes := lo.Uniq(lo.FilterMap(events, func(e model.EventData, _ int) (int, bool) {
		if e.ErrorCode == nil {
			return 0, false
		}
		return *e.ErrorCode, true
	}))

	lines := []string{
		summaryTitle.Render(imp.ID()),
		line("Samples", humanize.Comma(int64(len(events)))),
		line("States", stateCounts(events)),
		line("Played", (time.Duration(played) * time.Millisecond).String()),
		line("Ad samples", humanize.Comma(int64(len(imp.AdEventDataList)))),
		line("Error details", humanize.Comma(int64(len(imp.ErrorDetailList)))),
	}
	if len(events) > 0 {
		lines = append(lines, line("Source", events[0].SourceURL()))
	}
	if len(errorCodes) > 0 {
		lines = append(lines, summaryLabel.Render("Errors")+summaryError.Render(fmt.Sprint(errorCodes)))
	}

	return strings.Join(lines, "\n")
}

// stateCounts renders states in first-seen order, e.g. "startup×1 playing×3".
func stateCounts(events []model.EventData) string {
	if len(events) == 0 {
		return "-"
	}

	states := lo.Map(events, func(e model.EventData, _ int) string { return e.State })
	counts := lo.CountValues(states)

	return strings.Join(lo.Map(lo.Uniq(states), func(s string, _ int) string {
		return fmt.Sprintf("%s×%d", s, counts[s])
	}), " ")
}

func line(label, value string) string {
	return summaryLabel.Render(label) + summaryValue.Render(value)
}
