package runner

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"stepviz/pkg/color"
	"stepviz/pkg/controller"
	"stepviz/pkg/recorder"
)

// printer renders controller notifications as a readable trace
type printer struct {
	mu      sync.Mutex
	w       io.Writer
	trace   bool
	verbose bool
	stepped chan struct{}
}

func (p *printer) Notify(n recorder.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev := n.(type) {
	case controller.CodeParsed:
		if p.verbose {
			p.printf("%s %d lines, %d functions, %d classes\n",
				color.GreenText("Parsed"), ev.LineCount, len(ev.Functions), len(ev.Classes))
		}
	case recorder.StepRecorded:
		select {
		case p.stepped <- struct{}{}:
		default:
		}
		if p.trace {
			p.printf("%s %s %-12s %s\n",
				color.GrayText(fmt.Sprintf("[%4d]", ev.Ordinal)),
				color.CyanText(fmt.Sprintf("line %-3d", ev.Line)),
				ev.Kind,
				variables(ev.Variables))
		}
	case recorder.IterationStart:
		if p.trace {
			ctx := ev.Context
			p.printf("       %s %s over %s (%s, %d items)\n",
				color.MagentaText("loop"), ctx.Iterator, ctx.Container, pattern(ctx), ctx.Length)
		}
	case recorder.IterationEnd:
		if p.trace {
			p.printf("       %s %s\n", color.MagentaText("end"), ev.Context.Iterator)
		}
	case recorder.AnimationRecorded:
		if p.trace {
			p.printf("       %s %s -> %s\n",
				color.YellowText(ev.Operation), ev.SourceDisplay, ev.TargetVariable)
		}
	case recorder.SliceAccess:
		if p.trace {
			p.printf("       %s %s[%s:%s]\n", color.BlueText("slice"), ev.Container, ev.Start, ev.End)
		}
	case controller.ExecutionCompleted:
		p.printf("%s in %d steps\n", color.GreenText("Completed"), ev.StepCount)
	case controller.ExecutionError:
		msg := fmt.Sprintf("%s: %s", ev.Kind, ev.Message)
		if ev.Line > 0 {
			msg += fmt.Sprintf(" (line %d)", ev.Line)
		}
		p.printf("%s\n", color.Error(msg))
	case controller.ExecutionStopped:
		p.printf("%s\n", color.YellowText(ev.Message))
	}
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func pattern(ctx recorder.IterationContext) string {
	if ctx.Pattern == "" {
		return "plain"
	}
	return string(ctx.Pattern)
}

// variables formats the visible variables, locals shadowing globals
func variables(vars recorder.Variables) string {
	visible := maps.Clone(vars["global"])
	if visible == nil {
		visible = map[string]recorder.VariableView{}
	}
	maps.Copy(visible, vars["local"])

	parts := make([]string, 0, len(visible))
	for _, name := range slices.Sorted(maps.Keys(visible)) {
		parts = append(parts, name+"="+visible[name].Display)
	}
	return color.GrayText(strings.Join(parts, " "))
}
