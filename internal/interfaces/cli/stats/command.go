package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/orris-inc/trafficstat/internal/domain/stat"
	"github.com/orris-inc/trafficstat/internal/domain/traffic"
	"github.com/orris-inc/trafficstat/internal/interfaces/cli/bootstrap"
	"github.com/orris-inc/trafficstat/internal/shared/biztime"
	"github.com/orris-inc/trafficstat/internal/shared/errors"
	"github.com/orris-inc/trafficstat/internal/shared/utils"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var (
	opts   bootstrap.Options
	date   string
	limit  int
	output string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the persisted statistics of one business day",
		RunE:  run,
	}

	opts.Bind(cmd)
	cmd.Flags().StringVarP(&date, "date", "d", "", "Business day (YYYY-MM-DD, default: yesterday)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Number of top users to list (0 lists all)")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json or yaml")

	return cmd
}

// dayStats is everything the command prints for one day.
type dayStats struct {
	window  stat.Window
	global  *stat.GlobalStat
	users   []*stat.UserStat
	servers []*stat.ServerStat
	latest  *traffic.LedgerEntry
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := bootstrap.New(ctx, &opts)
	if err != nil {
		return err
	}
	defer app.Close()

	day, err := bootstrap.ResolveDay(date)
	if err != nil {
		return err
	}

	ds := dayStats{window: stat.NewDayWindow(day)}
	recordAt, granularity := ds.window.RecordAt(), ds.window.Granularity
	repo := app.Stats()

	ds.global, err = repo.FindGlobal(ctx, recordAt, granularity)
	if err != nil && !errors.IsNotFoundError(err) {
		return fmt.Errorf("failed to load global stats: %w", err)
	}
	if ds.users, err = repo.ListUserStats(ctx, recordAt, granularity); err != nil {
		return fmt.Errorf("failed to load user stats: %w", err)
	}
	if ds.servers, err = repo.ListServerStats(ctx, recordAt, granularity); err != nil {
		return fmt.Errorf("failed to load server stats: %w", err)
	}
	if ds.latest, err = app.Ledger().Latest(ctx); err != nil {
		return fmt.Errorf("failed to load drain ledger: %w", err)
	}

	return render(cmd.OutOrStdout(), ds, output, limit)
}

// view is the machine-readable form printed by --output json|yaml.
type view struct {
	Day      string       `json:"day" yaml:"day"`
	RecordAt int64        `json:"record_at" yaml:"record_at"`
	Global   *globalView  `json:"global,omitempty" yaml:"global,omitempty"`
	Users    []userView   `json:"users" yaml:"users"`
	Servers  []serverView `json:"servers" yaml:"servers"`
	Drain    *ledgerView  `json:"last_drain,omitempty" yaml:"last_drain,omitempty"`
}

type globalView struct {
	OrderCount        int64  `json:"order_count" yaml:"order_count"`
	OrderTotal        int64  `json:"order_total" yaml:"order_total"`
	PaidCount         int64  `json:"paid_count" yaml:"paid_count"`
	PaidTotal         int64  `json:"paid_total" yaml:"paid_total"`
	CommissionCount   int64  `json:"commission_count" yaml:"commission_count"`
	CommissionTotal   int64  `json:"commission_total" yaml:"commission_total"`
	RegisterCount     int64  `json:"register_count" yaml:"register_count"`
	InviteCount       int64  `json:"invite_count" yaml:"invite_count"`
	TransferUsedTotal uint64 `json:"transfer_used_total" yaml:"transfer_used_total"`
}

type userView struct {
	UserID     uint    `json:"user_id" yaml:"user_id"`
	ServerRate float64 `json:"server_rate" yaml:"server_rate"`
	Upload     uint64  `json:"u" yaml:"u"`
	Download   uint64  `json:"d" yaml:"d"`
}

type serverView struct {
	ServerID   uint   `json:"server_id" yaml:"server_id"`
	ServerType string `json:"server_type" yaml:"server_type"`
	Upload     uint64 `json:"u" yaml:"u"`
	Download   uint64 `json:"d" yaml:"d"`
}

type ledgerView struct {
	CycleID   string `json:"cycle_id" yaml:"cycle_id"`
	Users     int    `json:"users" yaml:"users"`
	Upload    uint64 `json:"upload" yaml:"upload"`
	Download  uint64 `json:"download" yaml:"download"`
	CreatedAt int64  `json:"created_at" yaml:"created_at"`
}

func (ds dayStats) view(limit int) view {
	v := view{
		Day:      ds.window.Day(),
		RecordAt: ds.window.RecordAt(),
		Users:    []userView{},
		Servers:  []serverView{},
	}
	if g := ds.global; g != nil {
		v.Global = &globalView{
			OrderCount: g.OrderCount, OrderTotal: g.OrderTotal,
			PaidCount: g.PaidCount, PaidTotal: g.PaidTotal,
			CommissionCount: g.CommissionCount, CommissionTotal: g.CommissionTotal,
			RegisterCount: g.RegisterCount, InviteCount: g.InviteCount,
			TransferUsedTotal: g.TransferUsedTotal,
		}
	}
	for _, u := range topUsers(ds.users, limit) {
		v.Users = append(v.Users, userView{UserID: u.UserID, ServerRate: u.ServerRate, Upload: u.Upload, Download: u.Download})
	}
	for _, sv := range ds.servers {
		v.Servers = append(v.Servers, serverView{ServerID: sv.ServerID, ServerType: sv.ServerType, Upload: sv.Upload, Download: sv.Download})
	}
	if l := ds.latest; l != nil {
		v.Drain = &ledgerView{CycleID: l.CycleID, Users: l.Users, Upload: l.UploadTotal, Download: l.DownloadTotal, CreatedAt: l.CreatedAt}
	}
	return v
}

func render(out io.Writer, ds dayStats, format string, limit int) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ds.view(limit))
	case outputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(ds.view(limit)); err != nil {
			return err
		}
		return enc.Close()
	case outputTable, "":
		return renderTable(out, ds, limit, time.Now())
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func renderTable(out io.Writer, ds dayStats, limit int, now time.Time) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	p := message.NewPrinter(language.English)

	fmt.Fprintf(w, "Statistics for %s\t%s\n\n", ds.window.Day(), ds.window)

	if ds.global == nil {
		fmt.Fprintln(w, "No global summary recorded.")
	} else {
		g := ds.global
		fmt.Fprintf(w, "Orders\t%s\t%s\n", p.Sprintf("%d", g.OrderCount), formatCents(p, g.OrderTotal))
		fmt.Fprintf(w, "Paid\t%s\t%s\n", p.Sprintf("%d", g.PaidCount), formatCents(p, g.PaidTotal))
		fmt.Fprintf(w, "Commission\t%s\t%s\n", p.Sprintf("%d", g.CommissionCount), formatCents(p, g.CommissionTotal))
		fmt.Fprintf(w, "Registered\t%s\t\n", p.Sprintf("%d", g.RegisterCount))
		fmt.Fprintf(w, "Invited\t%s\t\n", p.Sprintf("%d", g.InviteCount))
		fmt.Fprintf(w, "Transfer used\t%s\t\n", utils.FormatBytes(g.TransferUsedTotal))
	}

	users := topUsers(ds.users, limit)
	fmt.Fprintf(w, "\nUsers (%d of %d)\n", len(users), len(ds.users))
	if len(users) > 0 {
		fmt.Fprintln(w, "USER\tRATE\tUPLOAD\tDOWNLOAD\tTOTAL")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%g\t%s\t%s\t%s\n", u.UserID, u.ServerRate,
				utils.FormatBytes(u.Upload), utils.FormatBytes(u.Download), utils.FormatBytes(u.Total()))
		}
	}

	fmt.Fprintf(w, "\nServers (%d)\n", len(ds.servers))
	if len(ds.servers) > 0 {
		fmt.Fprintln(w, "SERVER\tTYPE\tUPLOAD\tDOWNLOAD")
		for _, s := range ds.servers {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ServerID, s.ServerType,
				utils.FormatBytes(s.Upload), utils.FormatBytes(s.Download))
		}
	}

	fmt.Fprintln(w)
	if ds.latest == nil {
		fmt.Fprintln(w, "Last drain:\tnever")
	} else {
		l := ds.latest
		at := biztime.FromUnix(l.CreatedAt)
		fmt.Fprintf(w, "Last drain:\t%s (%s)\tcycle %s, %d users, upload %s, download %s\n",
			at.In(biztime.Location()).Format("2006-01-02 15:04:05"),
			humanize.RelTime(at, now, "ago", "from now"),
			l.CycleID, l.Users, utils.FormatBytes(l.UploadTotal), utils.FormatBytes(l.DownloadTotal))
	}

	return w.Flush()
}

// topUsers orders users by total traffic, largest first.
func topUsers(users []*stat.UserStat, limit int) []*stat.UserStat {
	sorted := make([]*stat.UserStat, len(users))
	copy(sorted, users)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total() > sorted[j].Total()
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func formatCents(p *message.Printer, cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + p.Sprintf("%d.%02d", cents/100, cents%100)
}
