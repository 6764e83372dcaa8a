package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/semindex/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (no budget configured).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the current period.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	start, end := period.Bounds(s.now())

	var limit, used int64
	if s.br != nil {
		switch period {
		case domusage.PeriodMonth:
			limit, used = s.br.MonthlyLimit(), s.br.MonthlyUsed()
		default:
			limit, used = s.br.DailyLimit(), s.br.DailyUsed()
		}
	}
	return domusage.NewReport(period, start, end, limit, used)
}
