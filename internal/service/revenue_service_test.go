package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGetDashboardSplitsTodayAndMonth(t *testing.T) {
	repo := &fakeRevenueRepo{}
	doctorID := uuid.New()
	fixed := time.Date(2026, time.August, 15, 14, 30, 0, 0, time.UTC)
	svc := &revenueService{revenueRepo: repo, now: func() time.Time { return fixed }}
	ctx := context.Background()

	seed := func(day time.Time, amount string, newPatient bool) {
		if err := repo.AddSettlement(ctx, doctorID, day, dec(amount), newPatient); err != nil {
			t.Fatalf("seed settlement: %v", err)
		}
	}

	seed(fixed, "65", true)                    // today, new patient
	seed(fixed.Add(-2*time.Hour), "35", false) // today, returning patient
	seed(fixed.AddDate(0, 0, -5), "100", true) // earlier this month
	seed(fixed.AddDate(0, -1, 0), "999", true) // last month, out of range
	seed(fixed.AddDate(0, 0, 1), "500", true)  // tomorrow, out of range

	// Another doctor's settlements never bleed in.
	if err := repo.AddSettlement(ctx, uuid.New(), fixed, dec("77"), true); err != nil {
		t.Fatalf("seed settlement: %v", err)
	}

	dashboard, err := svc.GetDashboard(ctx, doctorID)
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}

	if dashboard.TodayRevenue != "100.00" {
		t.Errorf("today revenue = %s, want 100.00", dashboard.TodayRevenue)
	}
	if dashboard.TodayPatients != 1 {
		t.Errorf("today patients = %d, want 1", dashboard.TodayPatients)
	}
	if dashboard.MonthRevenue != "200.00" {
		t.Errorf("month revenue = %s, want 200.00", dashboard.MonthRevenue)
	}
	if dashboard.MonthPatients != 2 {
		t.Errorf("month patients = %d, want 2", dashboard.MonthPatients)
	}
}

func TestGetDashboardEmpty(t *testing.T) {
	svc := &revenueService{revenueRepo: &fakeRevenueRepo{}, now: time.Now}

	dashboard, err := svc.GetDashboard(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if dashboard.TodayRevenue != "0.00" || dashboard.MonthRevenue != "0.00" {
		t.Errorf("empty dashboard = %+v, want zero revenue strings", dashboard)
	}
	if dashboard.TodayPatients != 0 || dashboard.MonthPatients != 0 {
		t.Errorf("empty dashboard = %+v, want zero patient counts", dashboard)
	}
}
