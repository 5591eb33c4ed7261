package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorHealthy = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#FFC107")
	colorAlert   = lipgloss.Color("#e53935")
	colorMuted   = lipgloss.Color("#6b7280")
	colorBar     = lipgloss.Color("#4db6ac")
)

// Styles used by the terminal renderer.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Metric lipgloss.Style
	Muted  lipgloss.Style
	Bar    lipgloss.Style
	Box    lipgloss.Style
	Tier   map[string]lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true),
		Label:  lipgloss.NewStyle().Foreground(colorMuted),
		Metric: lipgloss.NewStyle().Bold(true),
		Muted:  lipgloss.NewStyle().Foreground(colorMuted),
		Bar:    lipgloss.NewStyle().Foreground(colorBar),
		Box:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		Tier: map[string]lipgloss.Style{
			"healthy": lipgloss.NewStyle().Foreground(colorHealthy),
			"warning": lipgloss.NewStyle().Foreground(colorWarning),
			"alert":   lipgloss.NewStyle().Foreground(colorAlert).Bold(true),
		},
	}
}

// Renderer draws views for a terminal of the given width.
type Renderer struct {
	Styles   Styles
	BarWidth int
}

func NewRenderer() *Renderer {
	return &Renderer{Styles: DefaultStyles(), BarWidth: 30}
}

// Render draws the metric, the tier message and the importance chart.
func (r *Renderer) Render(v View) string {
	var sb strings.Builder
	sb.WriteString(r.Styles.Title.Render("Smart Farm: Yield Prediction"))
	sb.WriteString("\n")
	sb.WriteString(r.Styles.Label.Render(fmt.Sprintf("%s on %s soil, observed %s", v.Crop, v.Soil, v.ObservedOn)))
	sb.WriteString("\n\n")

	sb.WriteString(r.Styles.Label.Render("Estimated Yield  "))
	sb.WriteString(r.Styles.Metric.Render(v.YieldLabel))
	sb.WriteString("\n")
	tier, ok := r.Styles.Tier[v.Severity]
	if !ok {
		tier = r.Styles.Muted
	}
	sb.WriteString(tier.Render(v.Recommendation))
	sb.WriteString("\n")

	if len(v.Importance) > 0 {
		sb.WriteString("\n")
		sb.WriteString(r.Styles.Title.Render("Feature importance"))
		sb.WriteString("\n")
		sb.WriteString(r.chart(v.Importance))
	}
	return r.Styles.Box.Render(strings.TrimRight(sb.String(), "\n"))
}

func (r *Renderer) chart(bars []Bar) string {
	labelWidth := 0
	for _, b := range bars {
		if w := lipgloss.Width(b.Feature); w > labelWidth {
			labelWidth = w
		}
	}
	var sb strings.Builder
	for _, b := range bars {
		n := int(b.Share*float64(r.BarWidth) + 0.5)
		sb.WriteString(fmt.Sprintf("%-*s ", labelWidth, b.Feature))
		sb.WriteString(r.Styles.Bar.Render(strings.Repeat("█", n)))
		sb.WriteString(r.Styles.Muted.Render(fmt.Sprintf(" %.3f", b.Weight)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderFailure draws an operator-facing error box.
func (r *Renderer) RenderFailure(err error) string {
	kind, msg := Describe(err)
	style := r.Styles.Tier["alert"]
	if kind == FailureInvalidInput {
		style = r.Styles.Tier["warning"]
	}
	return r.Styles.Box.Render(style.Render(msg))
}
