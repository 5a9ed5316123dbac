package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/vietddude/rankcheck/internal/checking/classify"
	"github.com/vietddude/rankcheck/internal/core/domain"
)

// Lookup stages named in rate-limit messages.
const (
	StageResolve     = ""
	StageNameHistory = "name history"
	StageHypixel     = "hypixel"
)

const (
	ruleWidth   = 70
	recentLimit = 5
	clearScreen = "\033[H\033[2J"
)

// Console writes per-entry progress lines and the summary screen.
type Console struct {
	w   io.Writer
	tty bool
}

// NewConsole writes to w; the screen is only cleared when w is a terminal.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, tty: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.w, format, args...)
}

func rule() string {
	return strings.Repeat("=", ruleWidth)
}

// Heading prints a ruled section title.
func (c *Console) Heading(title string) {
	c.printf("\n\n%s\n%s\n%s\n", rule(), title, rule())
}

// Line prints a plain message.
func (c *Console) Line(format string, args ...any) {
	c.printf(format+"\n", args...)
}

// Progress announces the entry about to be checked.
func (c *Console) Progress(i, n int, verb, username string) {
	c.printf("\n[%d/%d] %s: %s\n", i, n, verb, username)
}

// Queued reports an entry deferred to the retry queue.
func (c *Console) Queued(username, stage string, pause time.Duration) {
	c.printf("\n[⏸] %s\n", username)
	switch stage {
	case "":
		c.printf("    Rate limited - will recheck later\n")
	case StageHypixel:
		c.printf("    Hypixel rate limited - will recheck later\n")
	default:
		c.printf("    Rate limited on %s - will recheck later\n", stage)
	}
	if pause > 0 {
		c.printf("    Sleeping for %s...\n", pause)
	}
}

// NameChange reports a detected rename.
func (c *Console) NameChange(old, current string) {
	c.printf("\n[⚠] Username changed: %s → %s\n", old, current)
}

// Outcome prints the result block for a classified entry.
func (c *Console) Outcome(o domain.Outcome, copied bool) {
	switch o.Category {
	case domain.CategoryInvalidUsername:
		c.printf("\n[✗] %s\n", o.Entry.Username)
		c.printf("    Error: Invalid username format - skipping\n")
		return
	case domain.CategoryFailedLookup:
		c.printf("\n[✗] %s\n", o.DisplayName())
		c.printf("    Error: %s\n", o.Reason)
	case domain.CategoryNoProfile:
		c.printf("\n[⚠] %s\n", o.DisplayName())
		c.printf("    Warning: Never played on Hypixel\n")
	default:
		c.printf("\n[✓] %s\n", o.DisplayName())
		if o.NameChanged {
			c.printf("    Old Username: %s\n", o.Entry.Username)
		}
		c.printf("    Rank: %s\n", o.Category)
		c.printf("    Last Login: %s\n", classify.FormatTimestamp(o.LastLogin))
		status := "OFFLINE"
		if o.Online {
			status = "ONLINE"
		}
		c.printf("    Status: %s\n", status)
	}
	if copied {
		c.printf("    📁 Copied to: %s\n", o.Category)
	}
}

// Summary redraws the live statistics screen.
func (c *Console) Summary(s Summary) {
	if c.tty {
		c.printf("%s", clearScreen)
	}
	c.printf("%s\n", RenderSummary(s))
}

// RenderSummary formats the statistics screen.
func RenderSummary(s Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\nHYPIXEL PROFILE CHECKER - LIVE STATS\n%s\n", rule(), rule())
	fmt.Fprintf(&b, "\nTotal Checked: %d\n", s.Checked)
	fmt.Fprintf(&b, "Rate Limited (Queued for Recheck): %d\n", s.Queued)

	b.WriteString("\n--- RANK DISTRIBUTION ---\n")
	if cats := s.Categories(); len(cats) > 0 {
		rows := make([][]string, 0, len(cats))
		for _, cat := range cats {
			rows = append(rows, []string{string(cat), strconv.Itoa(s.Counts[cat])})
		}
		b.WriteString(renderTable([]string{"Category", "Count"}, rows))
		b.WriteString("\n")
	}

	if len(s.NameChanges) > 0 {
		b.WriteString("\n--- USERNAME CHANGES DETECTED ---\n")
		for _, ch := range tail(s.NameChanges, recentLimit) {
			fmt.Fprintf(&b, "  %s → %s\n", ch.Old, ch.New)
		}
		if extra := len(s.NameChanges) - recentLimit; extra > 0 {
			fmt.Fprintf(&b, "  ... and %d more\n", extra)
		}
	}

	if len(s.Failures) > 0 {
		b.WriteString("\n--- FAILED LOOKUPS ---\n")
		for _, f := range tail(s.Failures, recentLimit) {
			fmt.Fprintf(&b, "  %s: %s\n", f.Username, f.Reason)
		}
		if extra := len(s.Failures) - recentLimit; extra > 0 {
			fmt.Fprintf(&b, "  ... and %d more\n", extra)
		}
	}

	b.WriteString(rule())
	return b.String()
}

func tail[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		tw.AppendRow(r)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
