package jobs

import (
	"context"
	"time"

	"github.com/newer-zhu/investment/pkg/logger"
)

// ReportSender delivers the daily report mail.
type ReportSender interface {
	Send(now time.Time) error
}

// DailyReportJob mails the pick summary on weekday evenings. A file
// from an earlier date is reported when today has no picks, so the
// mail never goes silent after a holiday.
type DailyReportJob struct {
	reporter ReportSender
	logger   *logger.Logger
}

// NewDailyReportJob creates the job.
func NewDailyReportJob(r ReportSender, log *logger.Logger) *DailyReportJob {
	return &DailyReportJob{reporter: r, logger: log}
}

// Name returns the job name.
func (j *DailyReportJob) Name() string {
	return "daily_report"
}

// Schedule returns the cron schedule (22:00 on weekdays).
func (j *DailyReportJob) Schedule() string {
	return "0 0 22 * * 1-5"
}

// Run sends the report dated now.
func (j *DailyReportJob) Run(ctx context.Context) error {
	return j.reporter.Send(time.Now())
}
