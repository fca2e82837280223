package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ensemblecv/cv-judge/internal/consensus"
	"github.com/ensemblecv/cv-judge/internal/judge"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CCCCCC"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F7B801"))

	scoreStyleStrong   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50"))
	scoreStyleGood     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	scoreStyleConsider = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801"))
	scoreStyleWeak     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
)

func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 85:
		return scoreStyleStrong
	case score >= 70:
		return scoreStyleGood
	case score >= 50:
		return scoreStyleConsider
	default:
		return scoreStyleWeak
	}
}

// Report renders a consensus report for the terminal.
func Report(report *consensus.Report) string {
	var sections []string

	head := headerStyle.Render("CV JUDGE · CONSENSUS")
	verdict := fmt.Sprintf("%s  %s",
		scoreStyle(report.WeightedScore).Render(fmt.Sprintf("%.1f / 100", report.WeightedScore)),
		sectionStyle.Render(report.Recommendation),
	)
	sections = append(sections, head, verdict)

	if report.Discordant {
		var lines []string
		lines = append(lines, warnStyle.Render("⚠ judges disagree"))
		for _, note := range report.DiscordanceNotes {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("  %s (%d) vs %s (%d), gap %d",
				note.JudgeA, note.ScoreA, note.JudgeB, note.ScoreB, note.Gap)))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(report.ConsensusHighlights) > 0 {
		sections = append(sections, renderList("Consensus highlights", report.ConsensusHighlights))
	}

	if len(report.PerJudge) > 0 {
		var lines []string
		lines = append(lines, sectionStyle.Render("Judges"))
		for _, r := range report.PerJudge {
			lines = append(lines, fmt.Sprintf("  %s  %s  %s",
				scoreStyle(float64(r.Score)).Render(fmt.Sprintf("%3d", r.Score)),
				r.JudgeID,
				dimStyle.Render(fmt.Sprintf("(%d calls)", r.Attempts)),
			))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(report.ExcludedJudges) > 0 {
		var lines []string
		lines = append(lines, sectionStyle.Render("Excluded"))
		for _, ex := range report.ExcludedJudges {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("  %s: %s", ex.JudgeID, ex.Reason)))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	return boxStyle.Render(strings.Join(sections, "\n\n"))
}

// JudgeDetail renders one judge's full assessment, used by the interactive
// drill-down menu.
func JudgeDetail(r *judge.Result) string {
	var sections []string

	sections = append(sections, fmt.Sprintf("%s  %s",
		headerStyle.Render(r.JudgeID),
		scoreStyle(float64(r.Score)).Render(fmt.Sprintf("%d / 100", r.Score)),
	))

	if len(r.MatchedRequirements) > 0 {
		sections = append(sections, renderList("Matched requirements", r.MatchedRequirements))
	}
	if len(r.Gaps) > 0 {
		sections = append(sections, renderList("Gaps", r.Gaps))
	}
	if len(r.RedFlags) > 0 {
		sections = append(sections, renderList("Red flags", r.RedFlags))
	}
	if len(r.Strengths) > 0 {
		sections = append(sections, renderList("Strengths", r.Strengths))
	}
	if r.Rationale != "" {
		sections = append(sections, sectionStyle.Render("Rationale")+"\n"+dimStyle.Render("  "+r.Rationale))
	}

	return boxStyle.Render(strings.Join(sections, "\n\n"))
}

func renderList(title string, items []string) string {
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, sectionStyle.Render(title))
	for _, item := range items {
		lines = append(lines, "  • "+item)
	}
	return strings.Join(lines, "\n")
}

// JSON serializes the report for machine consumers.
func JSON(report *consensus.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	return string(data), nil
}
