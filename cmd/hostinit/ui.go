package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/3cpo-dev/hostinit/internal/core"
	"github.com/3cpo-dev/hostinit/internal/provision"
	"github.com/3cpo-dev/hostinit/pkg/api"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	okStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	failStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(colorYellow)
	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	nameStyle  = lipgloss.NewStyle().Width(12)
)

const (
	checkMark = "[OK]"
	crossMark = "[!!]"
	warnMark  = "[??]"
	skipMark  = "[--]"
)

func statusMark(s api.StepStatus) string {
	switch s {
	case api.StepApplied:
		return okStyle.Render(checkMark)
	case api.StepSkipped:
		return dimStyle.Render(skipMark)
	case api.StepWarned:
		return warnStyle.Render(warnMark)
	default:
		return failStyle.Render(crossMark)
	}
}

// printReport writes the per-step summary of an apply.
func printReport(w io.Writer, rep core.Report, runErr error) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("hostinit "+rep.Target))
	for _, r := range rep.Results {
		msg := r.Message
		if r.Status == api.StepFailed && r.Err != nil {
			msg = r.Err.Error()
		}
		fmt.Fprintf(w, "%s %s %s %s\n", statusMark(r.Status), nameStyle.Render(r.Step), msg,
			dimStyle.Render(r.Duration.Round(10*time.Millisecond).String()))
	}
	if rep.RunID != "" {
		fmt.Fprintln(w, dimStyle.Render("run "+rep.RunID))
	}
	if runErr != nil {
		fmt.Fprintln(w, failStyle.Render("provisioning stopped; rerun after fixing the cause"))
	}
}

// printSummary writes the step totals of this process.
func printSummary(w io.Writer, steps, failed int64, total time.Duration) {
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d steps, %d failed in %s", steps, failed, total.Round(time.Millisecond))))
}

func printChecks(w io.Writer, target string, checks []provision.Check) {
	fmt.Fprintln(w, titleStyle.Render("verify "+target))
	for _, c := range checks {
		mark := okStyle.Render(checkMark)
		if !c.OK {
			mark = failStyle.Render(crossMark)
		}
		fmt.Fprintf(w, "%s %s %s\n", mark, c.Name, dimStyle.Render(c.Detail))
	}
}

func printHistory(w io.Writer, runs []api.RunRecord, steps map[string][]api.StepRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no runs journaled yet"))
		return
	}
	for _, r := range runs {
		var head strings.Builder
		fmt.Fprintf(&head, "%s  %s  %s", r.StartedAt.Format(time.RFC3339), r.Target, r.Status)
		if r.Username != "" {
			fmt.Fprintf(&head, "  user=%s", r.Username)
		}
		if r.Hostname != "" {
			fmt.Fprintf(&head, "  hostname=%s", r.Hostname)
		}
		style := okStyle
		switch r.Status {
		case api.RunFailed:
			style = failStyle
		case api.RunRunning:
			style = warnStyle
		}
		fmt.Fprintln(w, style.Render(head.String()))
		fmt.Fprintln(w, dimStyle.Render("  run "+r.ID))
		for _, s := range steps[r.ID] {
			msg := s.Message
			if s.Error != "" {
				msg = s.Error
			}
			fmt.Fprintf(w, "  %s %s %s\n", statusMark(s.Status), nameStyle.Render(s.Name), msg)
		}
	}
}
