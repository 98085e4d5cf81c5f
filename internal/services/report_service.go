package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

// ReportService builds dashboard reports and caches them per filter.
type ReportService struct {
	store store.ExpenseRepository
	cache cache.Cache[core.Report]

	// gen counts Clear calls. A report is cached only if no Clear ran while it
	// was being built.
	mu  sync.Mutex
	gen uint64
}

// NewReportService caches reports in c; a nil c disables caching.
func NewReportService(repo store.ExpenseRepository, c cache.Cache[core.Report]) *ReportService {
	return &ReportService{store: repo, cache: c}
}

// NewReportCache is the cache shape ReportService expects.
func NewReportCache(size int, ttl time.Duration) *cache.LRUCache[core.Report] {
	return cache.NewLRUCache[core.Report](size, ttl)
}

// Clear drops cached reports.
func (s *ReportService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cache != nil {
		s.cache.Clear()
	}
}

func (s *ReportService) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// storeReport caches r unless a write cleared the cache after gen was read.
func (s *ReportService) storeReport(key string, gen uint64, r core.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.cache.Set(key, r)
}

// Report returns the table for f together with store-wide totals and chart data.
// The category chart and monthly totals always cover every expense; the daily series
// follows the filter.
func (s *ReportService) Report(ctx context.Context, f core.Filter) (core.Report, error) {
	if err := f.Validate(); err != nil {
		return core.Report{}, err
	}

	key := f.Key()
	if s.cache != nil {
		if r, ok := s.cache.Get(key); ok {
			return r, nil
		}
	}
	gen := s.generation()

	expenses, err := store.List(ctx, s.store, f)
	if err != nil {
		return core.Report{}, fmt.Errorf("list expenses: %w", err)
	}
	grand, err := s.store.SumAll(ctx)
	if err != nil {
		return core.Report{}, fmt.Errorf("sum expenses: %w", err)
	}
	categories, err := s.store.DistinctCategories(ctx)
	if err != nil {
		return core.Report{}, fmt.Errorf("list categories: %w", err)
	}
	totals, err := s.store.CategoryTotals(ctx)
	if err != nil {
		return core.Report{}, fmt.Errorf("category totals: %w", err)
	}
	months, err := s.store.MonthlyTotals(ctx)
	if err != nil {
		return core.Report{}, fmt.Errorf("monthly totals: %w", err)
	}

	r := core.Report{
		Filter:         f,
		Expenses:       expenses,
		FilteredTotal:  core.SumExpenses(expenses),
		GrandTotal:     grand,
		Categories:     categories,
		CategoryTotals: core.ChartSlices(totals),
		DailySeries:    core.FillDateGaps(core.GroupByDay(expenses)),
		MonthlyTotals:  months,
	}

	if s.cache != nil {
		s.storeReport(key, gen, r)
	}
	return r, nil
}

// Expenses lists the rows selected by f without building a report.
func (s *ReportService) Expenses(ctx context.Context, f core.Filter) ([]core.Expense, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return store.List(ctx, s.store, f)
}

// CacheStats reports the report cache occupancy and hit counts.
func (s *ReportService) CacheStats() cache.Stats {
	if s.cache == nil {
		return cache.Stats{}
	}
	if st, ok := s.cache.(interface{ Stats() cache.Stats }); ok {
		return st.Stats()
	}
	return cache.Stats{Size: s.cache.Size()}
}

// Categories lists the distinct categories in use.
func (s *ReportService) Categories(ctx context.Context) ([]string, error) {
	return s.store.DistinctCategories(ctx)
}
