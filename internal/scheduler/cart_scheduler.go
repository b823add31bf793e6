package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/shoplite/storefront-backend/internal/app/repository"
	"github.com/shoplite/storefront-backend/pkg/logger"
)

// CartSweepScheduler periodically removes cart items whose product has been
// deleted. Cart reads already skip those rows, so the sweep is pure cleanup.
type CartSweepScheduler struct {
	cron     *cron.Cron
	cartRepo repository.CartRepository
}

func NewCartSweepScheduler(cartRepo repository.CartRepository) *CartSweepScheduler {
	return &CartSweepScheduler{
		cron:     cron.New(),
		cartRepo: cartRepo,
	}
}

// Start schedules the hourly sweep
func (s *CartSweepScheduler) Start() error {
	_, err := s.cron.AddFunc("0 * * * *", func() {
		logger.Info("Starting orphaned cart item sweep", nil)

		count, err := s.cartRepo.DeleteOrphaned()
		if err != nil {
			logger.Error("Orphaned cart item sweep failed", err)
			return
		}

		logger.Info("Orphaned cart item sweep finished", map[string]interface{}{
			"removed": count,
		})
	})
	if err != nil {
		logger.Error("Failed to add cron job for cart sweep", err)
		return err
	}

	s.cron.Start()
	logger.Info("Cart sweep scheduler started successfully (hourly)", nil)

	return nil
}

// Stop stops the scheduler
func (s *CartSweepScheduler) Stop() {
	logger.Info("Stopping cart sweep scheduler...", nil)
	s.cron.Stop()
	logger.Info("Cart sweep scheduler stopped", nil)
}
