package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:           http.StatusBadRequest,
		CodeNotFound:             http.StatusNotFound,
		CodeInvalidParent:        http.StatusUnprocessableEntity,
		CodeCategoryHasItems:     http.StatusConflict,
		CodeInsufficientQuantity: http.StatusUnprocessableEntity,
		CodeAlreadyReturned:      http.StatusUnprocessableEntity,
		CodeDependency:           http.StatusServiceUnavailable,
	}
	for code, status := range cases {
		if got := MetadataFor(code).HTTPStatus; got != status {
			t.Fatalf("code %s: expected status %d got %d", code, status, got)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("row gone")
	err := Wrap(CodeNotFound, cause, "item lookup")
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Code() != CodeNotFound {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeInsufficientQuantity, "would go negative")
	outer := fmt.Errorf("adjust item: %w", inner)
	typed := As(outer)
	if typed == nil || typed.Code() != CodeInsufficientQuantity {
		t.Fatalf("expected typed error, got %v", typed)
	}
}

func TestAsReturnsNilForUntyped(t *testing.T) {
	if As(errors.New("plain")) != nil {
		t.Fatal("expected nil for untyped error")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeDependency, errors.New("conn refused"), "insert transaction")
	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(dump.Chain))
	}
}
