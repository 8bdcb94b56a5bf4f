package schedule

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Weekly schedule expressions, evaluated in the timetable's timezone.
// Auto-approval runs five minutes before each opening so freshly
// approved coins make it into the session.
const (
	cronMorningOpen    = "0 9 * * 1-6"
	cronEveningOpen    = "30 18 * * *"
	cronMorningApprove = "55 8 * * 1-6"
	cronEveningApprove = "25 18 * * *"
	cronEveryMinute    = "* * * * *"
	cronDailyProfit    = "0 0 * * *"
)

// Jobs is the set of recurring operations the runner drives. Each is
// invoked with a background context and reports only an error; the
// runner logs failures and lets the next tick retry.
type Jobs struct {
	OpenSession       func(ctx context.Context) error
	CloseExpired      func(ctx context.Context) error
	AutoApprove       func(ctx context.Context) error
	SweepReservations func(ctx context.Context) error
	SweepDeadlines    func(ctx context.Context) error
	SweepProfits      func(ctx context.Context) error
}

// Runner registers the recurring jobs on a cron scheduler pinned to the
// trading timezone.
type Runner struct {
	cron *cron.Cron
	jobs Jobs
}

// NewRunner creates a runner whose schedules fire in the timetable's
// timezone. Panicking jobs are recovered so one bad tick cannot take
// the scheduler down.
func NewRunner(timetable *Timetable, jobs Jobs) *Runner {
	c := cron.New(
		cron.WithLocation(timetable.Location()),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)
	return &Runner{cron: c, jobs: jobs}
}

// Start registers every schedule and starts the ticker.
func (r *Runner) Start() error {
	schedules := []struct {
		spec string
		name string
		run  func(ctx context.Context) error
	}{
		{cronMorningOpen, "open session (morning)", r.jobs.OpenSession},
		{cronEveningOpen, "open session (evening)", r.jobs.OpenSession},
		{cronMorningApprove, "auto-approve (morning)", r.jobs.AutoApprove},
		{cronEveningApprove, "auto-approve (evening)", r.jobs.AutoApprove},
		{cronEveryMinute, "close expired session", r.jobs.CloseExpired},
		{cronEveryMinute, "sweep expired reservations", r.jobs.SweepReservations},
		{cronEveryMinute, "sweep overdue transactions", r.jobs.SweepDeadlines},
		{cronDailyProfit, "profit crediting", r.jobs.SweepProfits},
	}

	for _, s := range schedules {
		name, run := s.name, s.run
		if run == nil {
			continue
		}
		if _, err := r.cron.AddFunc(s.spec, func() {
			if err := run(context.Background()); err != nil {
				log.Printf("scheduled job %q failed: %v", name, err)
			}
		}); err != nil {
			return err
		}
	}

	r.cron.Start()
	log.Printf("scheduler started in %s", r.cron.Location())
	return nil
}

// Stop halts the ticker and returns a context that is done once running
// jobs finish.
func (r *Runner) Stop() context.Context {
	return r.cron.Stop()
}
