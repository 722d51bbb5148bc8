package core

// Allowed categories per transaction type. The receipt scanner constrains
// the AI collaborator's output to the expense set.
var (
	ExpenseCategories = []string{
		"housing", "transportation", "groceries", "utilities",
		"entertainment", "food", "shopping", "healthcare", "education",
		"personal", "travel", "insurance", "gifts", "bills", "other-expense",
	}

	IncomeCategories = []string{
		"salary", "freelance", "investments", "business", "rental",
		"other-income",
	}
)

// ValidCategory reports whether the category belongs to the allowed set for
// the given transaction type.
func ValidCategory(t TransactionType, category string) bool {
	var set []string
	switch t {
	case Expense:
		set = ExpenseCategories
	case Income:
		set = IncomeCategories
	default:
		return false
	}
	for _, c := range set {
		if c == category {
			return true
		}
	}
	return false
}
