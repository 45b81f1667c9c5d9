package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hitoshi/streakboard/internal/client"
	"github.com/hitoshi/streakboard/internal/heatmap"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	// levelStyles はheatmap.Levelの0〜4に対応する。
	levelStyles = [5]lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#161b22")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#0e4429")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#006d32")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#26a641")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#39d353")),
	}
)

const (
	cell     = "■"
	barWidth = 20
)

// HeatmapCmd は日別の記録回数をヒートマップで表示する。
type HeatmapCmd struct {
	Weeks int `help:"Number of weeks to show." default:"52"`
}

// Run はヒートマップを取得して描画する。
func (c *HeatmapCmd) Run(ctx *Context) error {
	sess, err := ctx.session()
	if err != nil {
		return err
	}
	entries, err := sess.Store.Heatmap(ctx.Ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(ctx.Out, RenderHeatmap(entries, ctx.Clock.Now(), c.Weeks))
	return nil
}

// RenderHeatmap はtodayで終わるweeks週分のカレンダーを描画する。
// 各列は連続する7日で、最終列の末尾がtoday。
func RenderHeatmap(entries []heatmap.Entry, today time.Time, weeks int) string {
	if weeks <= 0 {
		weeks = heatmap.DefaultWeeks
	}
	counts := heatmap.FromEntries(entries)
	grid := heatmap.Grid(counts, today, weeks)

	var b strings.Builder
	total := 0
	for row := 0; row < 7; row++ {
		for col := 0; col < weeks; col++ {
			e := grid[col*7+row]
			total += e.Count
			b.WriteString(levelStyles[heatmap.Level(e.Count)].Render(cell))
			if col < weeks-1 {
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(dimStyle.Render("Less "))
	for _, s := range levelStyles {
		b.WriteString(s.Render(cell))
	}
	b.WriteString(dimStyle.Render(" More"))
	fmt.Fprintf(&b, "  %d in the last %d weeks\n", total, weeks)
	return b.String()
}

// renderGoal は目標を1行で描画する。進捗バーは目標の色で塗る。
func renderGoal(g client.Goal) string {
	filled := int(g.Ratio() * barWidth)
	color := g.Color
	if color == "" {
		color = DefaultGoalColor
	}
	bar := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("%s %s %d/%d  %s", bar, g.Name, g.Current, g.Target, dimStyle.Render(g.ID))
}
