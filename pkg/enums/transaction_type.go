package enums

import "fmt"

// TransactionType maps to the transaction_type enum in Postgres.
type TransactionType string

const (
	TransactionTypeIn         TransactionType = "in"
	TransactionTypeOut        TransactionType = "out"
	TransactionTypeAdjustment TransactionType = "adjustment"
	TransactionTypeUsage      TransactionType = "usage"
	TransactionTypePurchase   TransactionType = "purchase"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeIn,
	TransactionTypeOut,
	TransactionTypeAdjustment,
	TransactionTypeUsage,
	TransactionTypePurchase,
}

// IsValid reports whether the value matches the canonical transaction_type enum.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Increases reports whether the type adds stock.
func (t TransactionType) Increases() bool {
	return t == TransactionTypeIn || t == TransactionTypePurchase
}

// Decreases reports whether the type removes stock.
func (t TransactionType) Decreases() bool {
	return t == TransactionTypeOut || t == TransactionTypeUsage
}

// ParseTransactionType converts raw input into TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
