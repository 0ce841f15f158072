package enums

import "testing"

func TestTransactionTypeAdjustmentReasons(t *testing.T) {
	for _, reason := range []TransactionType{
		TransactionTypePurchase,
		TransactionTypeAdjustment,
		TransactionTypeDamaged,
		TransactionTypeLost,
		TransactionTypeDisposed,
	} {
		if !reason.IsAdjustmentReason() {
			t.Fatalf("%s should be a manual adjustment reason", reason)
		}
	}
	if TransactionTypeCheckout.IsAdjustmentReason() {
		t.Fatal("checkout must not be a manual adjustment reason")
	}
	if TransactionTypeReturn.IsAdjustmentReason() {
		t.Fatal("return must not be a manual adjustment reason")
	}
}

func TestParseTransactionType(t *testing.T) {
	parsed, err := ParseTransactionType("damaged")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != TransactionTypeDamaged {
		t.Fatalf("unexpected value %s", parsed)
	}
	if _, err := ParseTransactionType("teleported"); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestMemberRoleWriteGate(t *testing.T) {
	if !MemberRoleManager.CanWriteInventory() {
		t.Fatal("manager should write inventory")
	}
	if MemberRoleStaff.CanWriteInventory() {
		t.Fatal("staff should not write inventory")
	}
	if MemberRoleViewer.CanWriteInventory() {
		t.Fatal("viewer should not write inventory")
	}
}
