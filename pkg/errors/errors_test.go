package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "concurrent update detected", retryable: true},
		{code: CodeEmptyCart, status: http.StatusUnprocessableEntity, publicMsg: "cart is empty"},
		{code: CodeInvalidProduct, status: http.StatusUnprocessableEntity, publicMsg: "cart references an unavailable product", detailsOK: true},
		{code: CodeInvalidTransition, status: http.StatusConflict, publicMsg: "status transition not allowed", detailsOK: true},
		{code: CodeIdempotency, status: http.StatusConflict, publicMsg: "idempotency key reused", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeFollowsWrappedChain(t *testing.T) {
	typed := New(CodeEmptyCart, "cart is empty")
	wrapped := fmt.Errorf("place order: %w", typed)
	if !IsCode(wrapped, CodeEmptyCart) {
		t.Fatalf("expected wrapped error to carry EMPTY_CART")
	}
	if IsCode(wrapped, CodeNotFound) {
		t.Fatalf("unexpected NOT_FOUND match")
	}
	if IsCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestFromStoreClassifiesDriverErrors(t *testing.T) {
	if FromStore(nil, "noop") != nil {
		t.Fatal("expected nil for nil error")
	}

	deadlock := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40P01", Message: "deadlock detected"})
	if err := FromStore(deadlock, "commit"); !IsCode(err, CodeConflict) {
		t.Fatalf("expected deadlock to map to conflict, got %v", err)
	}

	refused := stdErrors.New("connection refused")
	if err := FromStore(refused, "commit"); !IsCode(err, CodeDependency) {
		t.Fatalf("expected plain error to map to dependency, got %v", err)
	}

	typed := New(CodeInvalidTransition, "nope")
	if err := FromStore(typed, "commit"); err != error(typed) {
		t.Fatalf("expected typed error to pass through, got %v", err)
	}
}

func TestDumpFieldsCarryPostgresDetail(t *testing.T) {
	err := Wrap(CodeDependency, &pgconn.PgError{Code: "23505", ConstraintName: "carts_user_id_key"}, "insert cart")
	fields := Dump(err).Fields()
	if fields["pg_constraint"] != "carts_user_id_key" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if fields["error_code"] != CodeDependency {
		t.Fatalf("unexpected code %v", fields["error_code"])
	}

	plain := Dump(stdErrors.New("boom")).Fields()
	if _, ok := plain["pg_code"]; ok {
		t.Fatal("expected no driver fields for plain errors")
	}
}
