package processor

import (
	"context"

	"github.com/robfig/cron/v3"

	"subvault/pkg/logger"
	"subvault/stock-worker-service/internal/app/stock-worker/service"
)

// CronScheduler периодически запускает сверку остатков и статусов
type CronScheduler struct {
	cron     *cron.Cron
	stockSvc service.StockProcessingServiceInterface
}

func NewCronScheduler(stockSvc service.StockProcessingServiceInterface) *CronScheduler {
	return &CronScheduler{
		cron:     cron.New(),
		stockSvc: stockSvc,
	}
}

// Start регистрирует задачу сверки и сразу выполняет первый прогон,
// чтобы не ждать ближайшего срабатывания расписания
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting cron scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		logger.Info().Msg("Cron job triggered: reconciling stock")

		if _, err := s.stockSvc.Reconcile(ctx); err != nil {
			logger.Error().Err(err).Msg("Stock reconciliation failed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()

	if _, err := s.stockSvc.Reconcile(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial stock reconciliation failed")
	}

	return nil
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
