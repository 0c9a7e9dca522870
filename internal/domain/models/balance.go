// internal/domain/models/balance.go
package models

import (
	"fmt"
	"math"
)

// Balance is a member's computed position in a group.
// Positive means the member is owed money, negative means they owe.
type Balance struct {
	UserID  int64   `json:"userId"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// Sign returns 1, -1 or 0 after rounding to cents.
func (b Balance) Sign() int {
	cents := math.Round(b.Balance * 100)
	switch {
	case cents > 0:
		return 1
	case cents < 0:
		return -1
	default:
		return 0
	}
}

// Display formats the balance with its sign, e.g. "+ ₹12.50", "- ₹3.00", "₹0.00".
func (b Balance) Display() string {
	switch b.Sign() {
	case 1:
		return fmt.Sprintf("+ ₹%.2f", b.Balance)
	case -1:
		return fmt.Sprintf("- ₹%.2f", math.Abs(b.Balance))
	default:
		return "₹0.00"
	}
}

// Status is the human label shown under the amount.
func (b Balance) Status() string {
	switch b.Sign() {
	case 1:
		return "Is owed by the group"
	case -1:
		return "Owes the group"
	default:
		return "Is settled up"
	}
}

// MemberContribution is one member's spend inside a monthly summary.
type MemberContribution struct {
	UserID       int64   `json:"userId"`
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
}

// MonthlySummary is the backend's per-month spend breakdown for a group.
type MonthlySummary struct {
	TotalSpent float64              `json:"totalSpent"`
	Members    []MemberContribution `json:"members"`
}
