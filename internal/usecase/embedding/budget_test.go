package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/domain"
)

func newTracker(daily, monthly int64, action BudgetAction) *BudgetTracker {
	return NewBudgetTracker(BudgetConfig{
		Provider:     "test",
		KeyPrefix:    "t:",
		DailyLimit:   daily,
		MonthlyLimit: monthly,
		Action:       action,
	}, zap.NewNop())
}

func TestBudgetTracker_RejectWhenExceeded(t *testing.T) {
	bt := newTracker(100, 0, BudgetActionReject)
	bt.Record(100)

	err := bt.Check(context.Background())
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected domain.ErrQuotaExceeded, got %v", err)
	}
}

func TestBudgetTracker_WarnWhenExceeded(t *testing.T) {
	bt := newTracker(100, 0, BudgetActionWarn)
	bt.Record(200)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected nil error for warn action, got %v", err)
	}
}

func TestBudgetTracker_DefaultActionIsWarn(t *testing.T) {
	bt := newTracker(1, 0, "")
	bt.Record(5)
	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected warn by default, got %v", err)
	}
}

func TestBudgetTracker_MonthlyReject(t *testing.T) {
	bt := newTracker(0, 500, BudgetActionReject)
	bt.Record(500)

	if err := bt.Check(context.Background()); !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected domain.ErrQuotaExceeded for monthly limit, got %v", err)
	}
}

func TestBudgetTracker_UnlimitedWhenZero(t *testing.T) {
	bt := newTracker(0, 0, BudgetActionReject)
	bt.Record(999999999)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected nil error for unlimited budget, got %v", err)
	}
	if bt.RemainingDaily() != -1 || bt.RemainingMonthly() != -1 {
		t.Errorf("remaining = %d/%d, want -1/-1", bt.RemainingDaily(), bt.RemainingMonthly())
	}
}

func TestBudgetTracker_Remaining(t *testing.T) {
	bt := newTracker(1000, 10000, BudgetActionWarn)
	bt.Record(300)

	if daily := bt.RemainingDaily(); daily != 700 {
		t.Errorf("expected daily remaining 700, got %d", daily)
	}
	if monthly := bt.RemainingMonthly(); monthly != 9700 {
		t.Errorf("expected monthly remaining 9700, got %d", monthly)
	}

	bt.Record(5000)
	if daily := bt.RemainingDaily(); daily != 0 {
		t.Errorf("expected daily remaining clamped to 0, got %d", daily)
	}
}

func TestBudgetTracker_DayRollover(t *testing.T) {
	bt := newTracker(100, 0, BudgetActionReject)
	now := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	bt.now = func() time.Time { return now }
	bt.lastDayReset = truncateToDay(now)
	bt.lastMonthReset = truncateToMonth(now)

	bt.Record(100)
	if err := bt.Check(context.Background()); err == nil {
		t.Fatal("expected rejection before rollover")
	}

	now = now.Add(2 * time.Hour)
	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected reset after day rollover, got %v", err)
	}
	if bt.MonthlyUsed() != 100 {
		t.Errorf("monthly counter must survive a day rollover, got %d", bt.MonthlyUsed())
	}
}

// --- Mock BudgetStore ---

type mockBudgetStore struct {
	mu     sync.Mutex
	data   map[string]int64
	getErr error
	setErr error
}

func newMockBudgetStore() *mockBudgetStore {
	return &mockBudgetStore{data: make(map[string]int64)}
}

func (m *mockBudgetStore) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] += val
	return nil
}

func (m *mockBudgetStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.data[key], nil
}

// --- Persistence tests ---

func TestBudgetTracker_WithStore_LoadsValues(t *testing.T) {
	store := newMockBudgetStore()
	bt := newTracker(1000, 10000, BudgetActionReject)
	store.data[bt.dailyKey(bt.lastDayReset)] = 300
	store.data[bt.monthlyKey(bt.lastMonthReset)] = 5000

	bt.WithStore(context.Background(), store)

	if bt.DailyUsed() != 300 {
		t.Errorf("expected daily_used=300, got %d", bt.DailyUsed())
	}
	if bt.MonthlyUsed() != 5000 {
		t.Errorf("expected monthly_used=5000, got %d", bt.MonthlyUsed())
	}
}

func TestBudgetTracker_Record_PersistsToStore(t *testing.T) {
	store := newMockBudgetStore()
	bt := newTracker(10000, 100000, BudgetActionWarn)
	bt.WithStore(context.Background(), store)

	bt.Record(100)
	bt.Record(200)

	store.mu.Lock()
	daily := store.data[bt.dailyKey(bt.lastDayReset)]
	monthly := store.data[bt.monthlyKey(bt.lastMonthReset)]
	store.mu.Unlock()

	if daily != 300 || monthly != 300 {
		t.Errorf("store = %d/%d, want 300/300", daily, monthly)
	}
}

func TestBudgetTracker_StoreErrorsAreNotFatal(t *testing.T) {
	store := newMockBudgetStore()
	store.getErr = errors.New("down")
	store.setErr = errors.New("down")

	bt := newTracker(1000, 0, BudgetActionReject).WithStore(context.Background(), store)
	bt.Record(10)

	if bt.DailyUsed() != 10 {
		t.Errorf("in-memory counter must still update, got %d", bt.DailyUsed())
	}
}

func TestBudgetTracker_KeyFormat(t *testing.T) {
	bt := newTracker(0, 0, BudgetActionWarn)
	ts := time.Date(2026, 5, 7, 0, 0, 0, 0, time.UTC)
	if got := bt.dailyKey(ts); got != "t:budget:test:daily:2026-05-07" {
		t.Errorf("dailyKey = %q", got)
	}
	if got := bt.monthlyKey(ts); got != "t:budget:test:monthly:2026-05" {
		t.Errorf("monthlyKey = %q", got)
	}
}
