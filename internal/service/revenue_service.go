package service

import (
	"context"
	"time"

	"pharmacy-backend/internal/model"
	"pharmacy-backend/internal/repository"

	"github.com/google/uuid"
)

// RevenueService rolls settled orders up into the dashboard counters. The
// snapshots it reads are written by payment settlement inside the settlement
// transaction, so the numbers here are only ever moved by exactly-once
// settlements.
type RevenueService interface {
	GetDashboard(ctx context.Context, doctorID uuid.UUID) (model.DashboardResponse, error)
}

type revenueService struct {
	revenueRepo repository.RevenueRepository
	now         func() time.Time
}

func NewRevenueService(revenueRepo repository.RevenueRepository) RevenueService {
	return &revenueService{revenueRepo: revenueRepo, now: time.Now}
}

func (s *revenueService) GetDashboard(ctx context.Context, doctorID uuid.UUID) (model.DashboardResponse, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	todayTotals, err := s.revenueRepo.SumRange(ctx, doctorID, today, today)
	if err != nil {
		return model.DashboardResponse{}, err
	}

	monthTotals, err := s.revenueRepo.SumRange(ctx, doctorID, monthStart, today)
	if err != nil {
		return model.DashboardResponse{}, err
	}

	return model.DashboardResponse{
		TodayRevenue:  todayTotals.Revenue.StringFixed(2),
		TodayPatients: todayTotals.PatientCount,
		MonthRevenue:  monthTotals.Revenue.StringFixed(2),
		MonthPatients: monthTotals.PatientCount,
	}, nil
}
