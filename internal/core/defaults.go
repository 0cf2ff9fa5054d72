package core

// CategorySeed is the creatable part of a Category.
type CategorySeed struct {
	Name  string
	Icon  string
	Color string
	Type  Kind
}

// DefaultCategories seeds a fresh ledger.
var DefaultCategories = []CategorySeed{
	{Name: "Food & Dining", Icon: "🍔", Color: "#ef4444", Type: Expense},
	{Name: "Transportation", Icon: "🚗", Color: "#3b82f6", Type: Expense},
	{Name: "Shopping", Icon: "🛒", Color: "#8b5cf6", Type: Expense},
	{Name: "Entertainment", Icon: "🎬", Color: "#f59e0b", Type: Expense},
	{Name: "Healthcare", Icon: "🏥", Color: "#06b6d4", Type: Expense},
	{Name: "Salary", Icon: "💰", Color: "#22c55e", Type: Income},
	{Name: "Freelance", Icon: "💼", Color: "#10b981", Type: Income},
	{Name: "Investment", Icon: "📈", Color: "#8b5cf6", Type: Income},
}

// FrequencyLabels are display names for each frequency.
var FrequencyLabels = map[Frequency]string{
	Daily:   "Daily",
	Weekly:  "Weekly",
	Monthly: "Monthly",
	Yearly:  "Yearly",
}
