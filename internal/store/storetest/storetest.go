// Package storetest is the behavioural contract every store.ExpenseRepository must meet.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

// Factory returns a fresh, empty repository. The suite closes it after each test.
type Factory func(t *testing.T) store.ExpenseRepository

// Run executes the contract against repositories built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	suite.Run(t, &ContractSuite{newRepo: newRepo})
}

type ContractSuite struct {
	suite.Suite
	newRepo Factory
	repo    store.ExpenseRepository
	ctx     context.Context
}

func (s *ContractSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = s.newRepo(s.T())
}

func (s *ContractSuite) TearDownTest() {
	s.NoError(s.repo.Close())
}

func input(desc, amount, category, date string) core.ExpenseInput {
	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		panic(err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.ExpenseInput{Description: desc, Amount: core.Money{Cents: cents}, Category: category, Date: d}
}

func (s *ContractSuite) mustCreate(in core.ExpenseInput) core.Expense {
	e, err := s.repo.Create(s.ctx, in)
	s.Require().NoError(err)
	return e
}

func ids(es []core.Expense) []int64 {
	out := make([]int64, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

func (s *ContractSuite) TestEmptyStore() {
	all, err := s.repo.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)

	sum, err := s.repo.SumAll(s.ctx)
	s.Require().NoError(err)
	s.True(sum.IsZero())

	cats, err := s.repo.DistinctCategories(s.ctx)
	s.Require().NoError(err)
	s.Empty(cats)

	totals, err := s.repo.CategoryTotals(s.ctx)
	s.Require().NoError(err)
	s.Empty(totals)

	months, err := s.repo.MonthlyTotals(s.ctx)
	s.Require().NoError(err)
	s.Empty(months)

	s.NoError(s.repo.Ping(s.ctx))
}

func (s *ContractSuite) TestCreateGetCategoryTotalsDelete() {
	created := s.mustCreate(input("Lunch", "12.50", "Food", "2024-01-15"))
	s.Positive(created.ID)
	s.False(created.CreatedAt.IsZero())
	s.Equal(created.CreatedAt, created.UpdatedAt)

	got, err := s.repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("Lunch", got.Description)
	s.Equal(int64(1250), got.Amount.Cents)
	s.Equal("Food", got.Category)
	s.Equal("2024-01-15", got.Date.String())

	totals, err := s.repo.CategoryTotals(s.ctx)
	s.Require().NoError(err)
	s.Contains(totals, core.CategoryTotal{Category: "Food", Total: core.Money{Cents: 1250}})

	deleted, err := s.repo.DeleteByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.True(deleted)

	got, err = s.repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *ContractSuite) TestGetByIDMissing() {
	got, err := s.repo.GetByID(s.ctx, 424242)
	s.NoError(err)
	s.Nil(got)
}

func (s *ContractSuite) TestCreateDefaultsDateToToday() {
	in := input("No date", "1", "Other", "2024-01-01")
	in.Date = core.Date{}
	e := s.mustCreate(in)
	s.False(e.Date.IsZero())
	s.Equal(core.DateOf(e.CreatedAt).String(), e.Date.String())
}

func (s *ContractSuite) TestCreateRejectsInvalidInput() {
	_, err := s.repo.Create(s.ctx, core.ExpenseInput{Description: "x", Amount: core.Money{Cents: 0}, Category: "Food", Date: core.NewDate(2024, 1, 1)})
	s.Error(err)

	all, err := s.repo.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *ContractSuite) TestUpdateRoundTrip() {
	created := s.mustCreate(input("Lunch", "12.50", "Food", "2024-01-15"))

	fields := input("Team dinner", "48.20", "Entertainment", "2024-01-16")
	updated, err := s.repo.Update(s.ctx, created.ID, fields)
	s.Require().NoError(err)
	s.Require().NotNil(updated)

	got, err := s.repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(fields, got.Input())
	s.Equal(created.ID, got.ID)
	s.True(created.CreatedAt.Equal(got.CreatedAt), "created_at must not change")
	s.True(got.UpdatedAt.After(created.UpdatedAt), "updated_at %v not after %v", got.UpdatedAt, created.UpdatedAt)

	// back-to-back updates still move forward
	again, err := s.repo.Update(s.ctx, created.ID, fields)
	s.Require().NoError(err)
	s.Require().NotNil(again)
	s.True(again.UpdatedAt.After(got.UpdatedAt))
}

func (s *ContractSuite) TestUpdateMissing() {
	got, err := s.repo.Update(s.ctx, 999, input("x", "1", "Food", "2024-01-01"))
	s.NoError(err)
	s.Nil(got)
}

func (s *ContractSuite) TestDeleteIsIdempotent() {
	e := s.mustCreate(input("Bus", "2", "Transportation", "2024-03-01"))

	ok, err := s.repo.DeleteByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.repo.DeleteByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ContractSuite) TestOrdering() {
	older := s.mustCreate(input("A", "1", "Food", "2024-01-10"))
	newest := s.mustCreate(input("B", "1", "Food", "2024-02-01"))
	sameDayFirst := s.mustCreate(input("C", "1", "Bills", "2024-01-20"))
	sameDaySecond := s.mustCreate(input("D", "1", "Bills", "2024-01-20"))

	all, err := s.repo.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Equal([]int64{newest.ID, sameDaySecond.ID, sameDayFirst.ID, older.ID}, ids(all))
}

func (s *ContractSuite) TestListByCategory() {
	food1 := s.mustCreate(input("Lunch", "12.50", "Food", "2024-01-15"))
	s.mustCreate(input("Taxi", "8", "Transportation", "2024-01-16"))
	food2 := s.mustCreate(input("Groceries", "30", "Food", "2024-01-17"))

	got, err := s.repo.ListByCategory(s.ctx, "Food")
	s.Require().NoError(err)
	s.Equal([]int64{food2.ID, food1.ID}, ids(got))

	none, err := s.repo.ListByCategory(s.ctx, "food")
	s.Require().NoError(err)
	s.Empty(none, "category match is exact")
}

func (s *ContractSuite) TestListByDateRange() {
	jan1 := s.mustCreate(input("a", "1", "Food", "2024-01-01"))
	jan15 := s.mustCreate(input("b", "1", "Food", "2024-01-15"))
	s.mustCreate(input("c", "1", "Food", "2024-02-01"))

	got, err := s.repo.ListByDateRange(s.ctx, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 15))
	s.Require().NoError(err)
	s.Equal([]int64{jan15.ID, jan1.ID}, ids(got), "range is inclusive on both ends")

	single, err := s.repo.ListByDateRange(s.ctx, core.NewDate(2024, 1, 15), core.NewDate(2024, 1, 15))
	s.Require().NoError(err)
	s.Equal([]int64{jan15.ID}, ids(single))

	_, err = s.repo.ListByDateRange(s.ctx, core.NewDate(2024, 2, 1), core.NewDate(2024, 1, 1))
	s.True(errors.Is(err, core.ErrInvalidRange), "got %v", err)
}

func (s *ContractSuite) TestFilterList() {
	s.mustCreate(input("a", "1", "Food", "2024-01-01"))
	bills := s.mustCreate(input("b", "1", "Bills", "2024-03-01"))

	got, err := store.List(s.ctx, s.repo, core.Filter{Category: "Bills", Start: core.NewDate(2030, 1, 1)})
	s.Require().NoError(err)
	s.Equal([]int64{bills.ID}, ids(got), "category wins over range")

	got, err = store.List(s.ctx, s.repo, core.Filter{Start: core.NewDate(2024, 2, 1)})
	s.Require().NoError(err)
	s.Equal([]int64{bills.ID}, ids(got), "open-ended range")

	got, err = store.List(s.ctx, s.repo, core.Filter{Category: core.AllCategories})
	s.Require().NoError(err)
	s.Len(got, 2)

	_, err = store.List(s.ctx, s.repo, core.Filter{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 1, 1)})
	s.ErrorIs(err, core.ErrInvalidRange)
}

func (s *ContractSuite) TestAggregates() {
	s.mustCreate(input("Lunch", "12.50", "Food", "2024-01-15"))
	s.mustCreate(input("Cinema", "10", "Entertainment", "2024-01-20"))
	s.mustCreate(input("Dinner", "20.25", "Food", "2024-02-03"))
	s.mustCreate(input("Bus", "10", "Bills", "2024-02-04"))

	cats, err := s.repo.DistinctCategories(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"Bills", "Entertainment", "Food"}, cats)

	totals, err := s.repo.CategoryTotals(s.ctx)
	s.Require().NoError(err)
	s.Equal([]core.CategoryTotal{
		{Category: "Food", Total: core.Money{Cents: 3275}},
		{Category: "Bills", Total: core.Money{Cents: 1000}},
		{Category: "Entertainment", Total: core.Money{Cents: 1000}},
	}, totals)

	months, err := s.repo.MonthlyTotals(s.ctx)
	s.Require().NoError(err)
	s.Equal([]core.MonthlyTotal{
		{Month: "2024-01", Total: core.Money{Cents: 2250}},
		{Month: "2024-02", Total: core.Money{Cents: 3025}},
	}, months)

	sum, err := s.repo.SumAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(5275), sum.Cents)
}

func (s *ContractSuite) TestSumConsistency() {
	var created []core.Expense
	for i := 0; i < 1100; i++ {
		created = append(created, s.mustCreate(input("tick", "0.10", "Other", "2024-01-01")))
	}
	for i := 0; i < len(created); i += 7 {
		_, err := s.repo.DeleteByID(s.ctx, created[i].ID)
		s.Require().NoError(err)
	}

	all, err := s.repo.ListAll(s.ctx)
	s.Require().NoError(err)
	sum, err := s.repo.SumAll(s.ctx)
	s.Require().NoError(err)

	s.Equal(core.SumExpenses(all), sum)
	s.Equal(int64(len(all))*10, sum.Cents)
	s.Equal("94.20", sum.String())
}

func (s *ContractSuite) TestConcurrentUpdateAndDelete() {
	e := s.mustCreate(input("race", "5", "Other", "2024-01-01"))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.repo.Update(s.ctx, e.ID, input("racer", "6", "Other", "2024-01-02"))
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := s.repo.DeleteByID(s.ctx, e.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	got, err := s.repo.GetByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Nil(got, "an update must never resurrect a deleted row")
}
