// internal/domain/models/expense.go
package models

// ExpenseCategories is the fixed list offered by the add-expense form.
var ExpenseCategories = []string{"Groceries", "Rent", "Utilities", "Transport", "Entertainment", "Other"}

// IsExpenseCategory reports whether c is one of ExpenseCategories.
func IsExpenseCategory(c string) bool {
	for _, v := range ExpenseCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Expense is a shared expense as listed for a group. Read-only once created.
type Expense struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Amount    float64   `json:"amount"`
	Category  string    `json:"category"`
	AddedBy   string    `json:"addedBy"`
	CreatedAt Timestamp `json:"createdAt"`
	ProofURL  string    `json:"proofUrl,omitempty"`
}

// NewExpense is the JSON part of the multipart add-expense submission.
type NewExpense struct {
	GroupID  int64   `json:"groupId"`
	Title    string  `json:"title"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
}
