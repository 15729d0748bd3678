package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type budgetCreateReq struct {
	Category ExpenseCategory `json:"category"`
	Amount   float64         `json:"amount"`
	Period   string          `json:"period"`
}

type budgetPatch struct {
	Category *ExpenseCategory `json:"category"`
	Amount   *float64         `json:"amount"`
	Period   *string          `json:"period"`
}

// POST /api/budgets/
func (a *api) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)

	var in budgetCreateReq
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
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
	if in.Period == "" {
		in.Period = "monthly"
	}
	if !budgetPeriods[in.Period] {
		errorJSON(w, http.StatusBadRequest, "period must be monthly, weekly or yearly")
		return
	}

	b := Budget{
		UserID:   owner.ID,
		Category: in.Category,
		Amount:   in.Amount,
		Period:   in.Period,
	}
	if err := a.db.Create(&b).Error; err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// GET /api/budgets/
func (a *api) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)

	budgets := make([]Budget, 0)
	if err := a.db.Where("user_id = ?", owner.ID).
		Order("created_at DESC").
		Find(&budgets).Error; err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (a *api) findOwnedBudget(ownerID int64, idParam string) (*Budget, error) {
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var b Budget
	if err := a.db.Where("id = ? AND user_id = ?", id, ownerID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// GET /api/budgets/{id}
func (a *api) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)
	b, err := a.findOwnedBudget(owner.ID, chi.URLParam(r, "id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errorJSON(w, http.StatusNotFound, "Budget not found")
		return
	} else if err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// PUT /api/budgets/{id}
func (a *api) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)
	b, err := a.findOwnedBudget(owner.ID, chi.URLParam(r, "id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errorJSON(w, http.StatusNotFound, "Budget not found")
		return
	} else if err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}

	var in budgetPatch
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			errorJSON(w, http.StatusBadRequest, "invalid category")
			return
		}
		b.Category = *in.Category
	}
	if in.Amount != nil {
		if *in.Amount <= 0 {
			errorJSON(w, http.StatusBadRequest, "amount must be greater than 0")
			return
		}
		b.Amount = *in.Amount
	}
	if in.Period != nil {
		if !budgetPeriods[*in.Period] {
			errorJSON(w, http.StatusBadRequest, "period must be monthly, weekly or yearly")
			return
		}
		b.Period = *in.Period
	}
	b.UpdatedAt = time.Now().UTC()

	if err := a.db.Save(b).Error; err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DELETE /api/budgets/{id}
func (a *api) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r)
	b, err := a.findOwnedBudget(owner.ID, chi.URLParam(r, "id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errorJSON(w, http.StatusNotFound, "Budget not found")
		return
	} else if err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	if err := a.db.Delete(b).Error; err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Budget deleted successfully"})
}
