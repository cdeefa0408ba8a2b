package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eduserv/ledger/internal/app/models/dto"
	"github.com/eduserv/ledger/internal/client"
	"github.com/eduserv/ledger/internal/pkg/helpers"
	"github.com/eduserv/ledger/internal/viewsync"
)

var (
	watchToken string
	watchOnce  bool
	watchRate  float64

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Poll every ledger view from a running API and log each refresh",
		RunE:  runWatch,
	}
)

func init() {
	watchCmd.Flags().StringVar(&watchToken, "token", "", "bearer token for the API (see the token command)")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "refresh every view once and exit")
	watchCmd.Flags().Float64Var(&watchRate, "rate", 20, "maximum API requests per second")
}

// viewReport summarizes one subscription for the log.
type viewReport func() (viewsync.View, int, viewsync.Status)

func track[K comparable, T any](ctx context.Context, svc *viewsync.Service, view viewsync.View, fetch viewsync.FetchFunc[T], key viewsync.KeyFunc[K, T]) (viewReport, error) {
	sub, err := viewsync.Subscribe(ctx, svc, view, fetch, key)
	if err != nil {
		return nil, err
	}
	return func() (viewsync.View, int, viewsync.Status) {
		return view, len(sub.Snapshot()), sub.Status()
	}, nil
}

func studentKey(s dto.StudentResponse) int64 { return s.ID }

func studentsIn(api *client.Client, bucket string) viewsync.FetchFunc[dto.StudentResponse] {
	return func(ctx context.Context) ([]dto.StudentResponse, error) {
		return api.ListStudents(ctx, bucket, "")
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := client.New(client.Options{
		BaseURL:           cfg.Sync.APIBaseURL,
		Token:             watchToken,
		RequestsPerSecond: watchRate,
	})
	if err != nil {
		return err
	}

	fast := helpers.ParseDuration(cfg.Sync.FastInterval, viewsync.DefaultFastInterval)
	slow := helpers.ParseDuration(cfg.Sync.SlowInterval, viewsync.DefaultSlowInterval)
	svc := viewsync.New(viewsync.Options{FastInterval: fast, SlowInterval: slow, Logger: lgr})
	defer svc.Stop()

	buckets := map[viewsync.View]string{
		viewsync.ViewRegistry:     "",
		viewsync.ViewFinance:      "",
		viewsync.ViewNotCompleted: "not_completed",
		viewsync.ViewCompleted:    "completed",
		viewsync.ViewTravelled:    "travelled",
		viewsync.ViewOnLoan:       "on_loan",
	}

	var reports []viewReport
	for _, v := range viewsync.Views() {
		var r viewReport
		switch v {
		case viewsync.ViewExpenses:
			r, err = track[int64, dto.ExpenseResponse](ctx, svc, v, func(ctx context.Context) ([]dto.ExpenseResponse, error) {
				report, err := api.QueryExpenses(ctx, "", "")
				return report.Expenses, err
			}, func(e dto.ExpenseResponse) int64 { return e.ID })
		case viewsync.ViewPrograms:
			r, err = track[int64, dto.ProgramResponse](ctx, svc, v, api.ListPrograms, func(p dto.ProgramResponse) int64 { return p.ID })
		case viewsync.ViewFees:
			r, err = track[int64, dto.FeeResponse](ctx, svc, v, api.ListFees, func(f dto.FeeResponse) int64 { return f.FeeID })
		default:
			r, err = track[int64, dto.StudentResponse](ctx, svc, v, studentsIn(api, buckets[v]), studentKey)
		}
		if err != nil {
			return err
		}
		reports = append(reports, r)
	}

	logReports := func() {
		for _, report := range reports {
			view, rows, st := report()
			event := lgr.Info()
			if st.Banner != "" {
				event = lgr.Warn().Str("banner", st.Banner)
			}
			event.Str("view", view.String()).Int("rows", rows).Time("lastSync", st.LastSync).Msg("View state")
		}
	}

	if watchOnce {
		err := svc.RefreshAll(ctx)
		logReports()
		return err
	}

	svc.Start()
	lgr.Info().Dur("fast", fast).Dur("slow", slow).Str("api", cfg.Sync.APIBaseURL).Msg("Watching views")

	ticker := time.NewTicker(slow)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			lgr.Info().Msg("Stopping watch")
			return nil
		case <-ticker.C:
			logReports()
		}
	}
}
