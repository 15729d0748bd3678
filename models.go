package main

import "time"

// ExpenseCategory is the closed set of categories an expense or budget can
// carry. Stored as text.
type ExpenseCategory string

const (
	CategoryFood          ExpenseCategory = "food"
	CategoryTransport     ExpenseCategory = "transport"
	CategoryUtilities     ExpenseCategory = "utilities"
	CategoryEntertainment ExpenseCategory = "entertainment"
	CategoryHealthcare    ExpenseCategory = "healthcare"
	CategoryShopping      ExpenseCategory = "shopping"
	CategoryEducation     ExpenseCategory = "education"
	CategoryOther         ExpenseCategory = "other"
)

var expenseCategories = map[ExpenseCategory]bool{
	CategoryFood:          true,
	CategoryTransport:     true,
	CategoryUtilities:     true,
	CategoryEntertainment: true,
	CategoryHealthcare:    true,
	CategoryShopping:      true,
	CategoryEducation:     true,
	CategoryOther:         true,
}

func (c ExpenseCategory) Valid() bool { return expenseCategories[c] }

var budgetPeriods = map[string]bool{
	"monthly": true,
	"weekly":  true,
	"yearly":  true,
}

// User is the persisted auth user record. Handlers return it directly; the
// password hash never serializes.
type User struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Username       string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	HashedPassword string    `gorm:"size:255;not null" json:"-"`
	FullName       string    `gorm:"size:100" json:"full_name,omitempty"`
	IsActive       int       `gorm:"not null;default:1" json:"is_active"` // boolean-as-integer
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string { return "users" }

// Expense is a single spend record owned by a user. Date is when the money
// was spent; CreatedAt is when the row was written.
type Expense struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	Title       string          `gorm:"size:200;not null" json:"title"`
	Amount      float64         `gorm:"not null" json:"amount"`
	Category    ExpenseCategory `gorm:"type:text;not null" json:"category"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Date        time.Time       `gorm:"index:idx_expenses_user_date,priority:2;not null" json:"date"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	UserID      int64           `gorm:"index:idx_expenses_user_date,priority:1;not null" json:"user_id"`

	// Reserved for the AI categorizer; nothing writes these yet.
	AIConfidence        *float64 `json:"ai_confidence,omitempty"`
	AISuggestedCategory *string  `gorm:"size:50" json:"ai_suggested_category,omitempty"`
}

func (Expense) TableName() string { return "expenses" }

// Budget is a per-category spending limit. It is a bare record: nothing in
// the API computes consumption against it.
type Budget struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	UserID    int64           `gorm:"index;not null" json:"user_id"`
	Category  ExpenseCategory `gorm:"type:text;not null" json:"category"`
	Amount    float64         `gorm:"not null" json:"amount"`
	Period    string          `gorm:"size:20;not null;default:monthly" json:"period"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Budget) TableName() string { return "budgets" }
