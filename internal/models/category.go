package models

// CategoryKind separates income categories from expense categories.
// A user may reuse a name across kinds but not within one.
type CategoryKind string

const (
	CategoryKindIncome  CategoryKind = "income"
	CategoryKindExpense CategoryKind = "expense"
)

// Category represents a transaction category
type Category struct {
	Base
	UserID uint         `gorm:"not null;index" json:"user_id"`
	Kind   CategoryKind `gorm:"not null" json:"kind"`
	Name   string       `gorm:"not null" json:"name"`

	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
}
