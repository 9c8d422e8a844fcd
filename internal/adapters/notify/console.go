package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/betsync/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implements ports.Notifier and prints operator reports.
type Console struct {
	out   io.Writer
	table bool
	now   func() time.Time
}

// NewConsole writes to stdout. table selects the full table output for cycle
// summaries instead of one compact line.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table, now: time.Now}
}

// NewConsoleWriter writes to w; used by tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table, now: time.Now}
}

// NotifyIngest prints the summary of one league cycle.
func (c *Console) NotifyIngest(_ context.Context, s domain.IngestStats) error {
	ts := c.now().Format("15:04:05")
	if !c.table {
		fmt.Fprintf(c.out, "[%s] %s events:%d mkts:%d open+%d cur:%d skip:%d/%d/%d fail:%d/%d (%s)\n",
			ts, s.League, s.Events, s.Markets, s.OpeningInserted, s.CurrentWritten,
			s.Unparseable, s.Excluded, s.NoValidPrice, s.FetchFailures, s.WriteFailures,
			s.Duration.Round(time.Millisecond))
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] ingest %s\n", ts, s.League)
	table := tablewriter.NewWriter(c.out)
	table.Header("Events", "Started", "Fetch fail", "Markets", "Unparseable", "Yes/No", "No price", "Opening", "Current", "Write fail", "Took")
	table.Append(
		fmt.Sprintf("%d", s.Events),
		fmt.Sprintf("%d", s.EventsStarted),
		fmt.Sprintf("%d", s.FetchFailures),
		fmt.Sprintf("%d", s.Markets),
		fmt.Sprintf("%d", s.Unparseable),
		fmt.Sprintf("%d", s.Excluded),
		fmt.Sprintf("%d", s.NoValidPrice),
		fmt.Sprintf("%d", s.OpeningInserted),
		fmt.Sprintf("%d", s.CurrentWritten),
		fmt.Sprintf("%d", s.WriteFailures),
		s.Duration.Round(time.Millisecond).String(),
	)
	table.Render()
	return nil
}

// NotifySync prints the summary of one reconciliation pass.
func (c *Console) NotifySync(_ context.Context, s domain.SyncStats) error {
	fmt.Fprintf(c.out, "[%s] settle slips:%d written:%d skipped:%d failed:%d\n",
		c.now().Format("15:04:05"), s.Slips, s.Written, s.Skipped, s.Failed)
	return nil
}

// ReportWagers prints a user's wagers and the settled totals. Parlay siblings
// are listed under their group but only the first leg shows money.
func (c *Console) ReportWagers(userID string, wagers []domain.Wager) {
	if len(wagers) == 0 {
		fmt.Fprintf(c.out, "no wagers for %s\n", userID)
		return
	}

	fmt.Fprintf(c.out, "\nWagers for %s\n", userID)
	table := tablewriter.NewWriter(c.out)
	table.Header("Placed", "League", "Type", "Description", "Price", "Stake", "Payout", "Status", "Profit", "Group")
	for _, w := range wagers {
		stake, payout := "", ""
		if w.CarriesMoney() {
			stake = "$" + w.Stake.StringFixed(2)
			payout = "$" + w.PotentialPayout.StringFixed(2)
		}
		table.Append(
			w.PlacedAt.Format("2006-01-02 15:04"),
			w.League,
			string(w.BetType),
			truncate(w.Description, 40),
			domain.FormatAmerican(w.Price),
			stake,
			payout,
			string(w.Status),
			formatProfit(w),
			shortGroup(w.GroupID),
		)
	}
	table.Render()

	s := domain.Summarize(wagers)
	fmt.Fprintf(c.out, "  %d wagers | W:%d L:%d P:%d pending:%d | staked $%s | profit $%s\n",
		s.Total, s.Won, s.Lost, s.Pushed, s.Pending, s.Staked.StringFixed(2), s.Profit.StringFixed(2))
}

func formatProfit(w domain.Wager) string {
	if !w.CarriesMoney() {
		return ""
	}
	if !w.Profit.Valid {
		return "-"
	}
	p := w.Profit.Decimal
	if p.IsPositive() {
		return "+$" + p.StringFixed(2)
	}
	if p.IsNegative() {
		return "-$" + p.Abs().StringFixed(2)
	}
	return "$0.00"
}

func shortGroup(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
