package enums

import "fmt"

// TransactionType maps to the inventory_transaction_type enum in Postgres.
type TransactionType string

const (
	TransactionTypePurchase   TransactionType = "purchase"
	TransactionTypeAdjustment TransactionType = "adjustment"
	TransactionTypeDamaged    TransactionType = "damaged"
	TransactionTypeLost       TransactionType = "lost"
	TransactionTypeDisposed   TransactionType = "disposed"
	TransactionTypeCheckout   TransactionType = "checkout"
	TransactionTypeReturn     TransactionType = "return"
)

var validTransactionTypes = []TransactionType{
	TransactionTypePurchase,
	TransactionTypeAdjustment,
	TransactionTypeDamaged,
	TransactionTypeLost,
	TransactionTypeDisposed,
	TransactionTypeCheckout,
	TransactionTypeReturn,
}

// adjustmentReasons are the transaction types callers may request directly.
// Checkout and return rows are written only by the checkout engine.
var adjustmentReasons = []TransactionType{
	TransactionTypePurchase,
	TransactionTypeAdjustment,
	TransactionTypeDamaged,
	TransactionTypeLost,
	TransactionTypeDisposed,
}

// IsValid reports whether the value matches the canonical transaction enum.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsAdjustmentReason reports whether the type may be supplied on a manual adjustment.
func (t TransactionType) IsAdjustmentReason() bool {
	for _, candidate := range adjustmentReasons {
		if candidate == t {
			return true
		}
	}
	return false
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
