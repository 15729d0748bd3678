package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

/* ---------- DTOs ---------- */

type expenseCreateReq struct {
	Title       string          `json:"title"`
	Amount      float64         `json:"amount"`
	Category    ExpenseCategory `json:"category"`
	Description string          `json:"description"`
	Date        *time.Time      `json:"date"`
}

type expensePatch struct {
	Title       *string          `json:"title"`
	Amount      *float64         `json:"amount"`
	Category    *ExpenseCategory `json:"category"`
	Description *string          `json:"description"`
	Date        *time.Time       `json:"date"`
}

type expenseStatistics struct {
	TotalExpenses  float64                     `json:"total_expenses"`
	ExpenseCount   int64                       `json:"expense_count"`
	AverageExpense float64                     `json:"average_expense"`
	ByCategory     map[ExpenseCategory]float64 `json:"by_category"`
}

/* ---------- Handlers ---------- */

// POST /api/expenses/
// The record is always attributed to the caller; there is no owner field in
// the request to begin with.
func (a *api) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)

	var in expenseCreateReq
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || len(in.Title) > 200 {
		errorJSON(w, http.StatusBadRequest, "title is required (max 200 characters)")
		return
	}
	if in.Amount <= 0 {
		errorJSON(w, http.StatusBadRequest, "amount must be greater than 0")
		return
	}
	if !in.Category.Valid() {
		errorJSON(w, http.StatusBadRequest, "invalid category")
		return
	}

	date := time.Now().UTC()
	if in.Date != nil {
		date = *in.Date
	}
	e := Expense{
		Title:       in.Title,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        date,
		UserID:      owner.ID,
	}
	if err := a.db.Create(&e).Error; err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// GET /api/expenses/?skip&limit&category&start_date&end_date
func (a *api) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)
	q := r.URL.Query()

	skip := 0
	if v := q.Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	limit := 100
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			switch {
			case n < 1:
				limit = 1
			case n > 100:
				limit = 100
			default:
				limit = n
			}
		}
	}

	query := a.db.Where("user_id = ?", owner.ID)

	if v := q.Get("category"); v != "" {
		cat := ExpenseCategory(v)
		if !cat.Valid() {
			errorJSON(w, http.StatusBadRequest, "invalid category")
			return
		}
		query = query.Where("category = ?", cat)
	}
	start, end, err := parseDateRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if start != nil {
		query = query.Where("date >= ?", *start)
	}
	if end != nil {
		query = query.Where("date <= ?", *end)
	}

	expenses := make([]Expense, 0)
	if err := query.Order("date DESC, created_at DESC").
		Offset(skip).Limit(limit).
		Find(&expenses).Error; err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

// GET /api/expenses/statistics?start_date&end_date
func (a *api) handleExpenseStatistics(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)

	start, end, err := parseDateRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	scope := func() *gorm.DB {
		q := a.db.Model(&Expense{}).Where("user_id = ?", owner.ID)
		if start != nil {
			q = q.Where("date >= ?", *start)
		}
		if end != nil {
			q = q.Where("date <= ?", *end)
		}
		return q
	}

	var count int64
	if err := scope().Count(&count).Error; err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}

	var rows []struct {
		Category ExpenseCategory
		Total    float64
	}
	if err := scope().Select("category, SUM(amount) AS total").
		Group("category").Scan(&rows).Error; err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}

	stats := expenseStatistics{
		ExpenseCount: count,
		ByCategory:   make(map[ExpenseCategory]float64, len(rows)),
	}
	for _, row := range rows {
		stats.ByCategory[row.Category] = row.Total
		stats.TotalExpenses += row.Total
	}
	if count > 0 {
		stats.AverageExpense = stats.TotalExpenses / float64(count)
	}
	writeJSON(w, http.StatusOK, stats)
}

// findOwnedExpense loads an expense scoped to the owner. A row owned by
// someone else looks exactly like a missing row.
func (a *api) findOwnedExpense(ownerID int64, idParam string) (*Expense, error) {
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var e Expense
	if err := a.db.Where("id = ? AND user_id = ?", id, ownerID).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// GET /api/expenses/{id}
func (a *api) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)
	e, err := a.findOwnedExpense(owner.ID, chi.URLParam(r, "id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errorJSON(w, http.StatusNotFound, "Expense not found")
		return
	} else if err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// PUT /api/expenses/{id}
// Only supplied fields apply; updated_at refreshes either way.
func (a *api) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)
	e, err := a.findOwnedExpense(owner.ID, chi.URLParam(r, "id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errorJSON(w, http.StatusNotFound, "Expense not found")
		return
	} else if err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}

	var in expensePatch
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" || len(title) > 200 {
			errorJSON(w, http.StatusBadRequest, "title is required (max 200 characters)")
			return
		}
		e.Title = title
	}
	if in.Amount != nil {
		if *in.Amount <= 0 {
			errorJSON(w, http.StatusBadRequest, "amount must be greater than 0")
			return
		}
		e.Amount = *in.Amount
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			errorJSON(w, http.StatusBadRequest, "invalid category")
			return
		}
		e.Category = *in.Category
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Date != nil {
		e.Date = *in.Date
	}
	e.UpdatedAt = time.Now().UTC()

	if err := a.db.Save(e).Error; err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DELETE /api/expenses/{id}
func (a *api) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)
	e, err := a.findOwnedExpense(owner.ID, chi.URLParam(r, "id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errorJSON(w, http.StatusNotFound, "Expense not found")
		return
	} else if err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	if err := a.db.Delete(e).Error; err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}

// GET /api/expenses/recent/week and /recent/month
// Equivalent to list with start_date = now minus the window, unpaginated.
func (a *api) handleRecentExpenses(days int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := currentUser(r)
		since := time.Now().UTC().AddDate(0, 0, -days)

		expenses := make([]Expense, 0)
		if err := a.db.Where("user_id = ? AND date >= ?", owner.ID, since).
			Order("date DESC, created_at DESC").
			Find(&expenses).Error; err != nil {
			errorJSON(w, http.StatusInternalServerError, "db error")
			return
		}
		writeJSON(w, http.StatusOK, expenses)
	}
}

/* ---------- helpers ---------- */

func parseDateRange(startStr, endStr string) (start, end *time.Time, err error) {
	if startStr != "" {
		t, perr := time.Parse(time.RFC3339, startStr)
		if perr != nil {
			return nil, nil, errors.New("invalid start_date (want RFC 3339)")
		}
		start = &t
	}
	if endStr != "" {
		t, perr := time.Parse(time.RFC3339, endStr)
		if perr != nil {
			return nil, nil, errors.New("invalid end_date (want RFC 3339)")
		}
		end = &t
	}
	return start, end, nil
}
