package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"google.golang.org/api/googleapi"
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
		{code: CodeSKUNotFound, status: http.StatusNotFound, publicMsg: "sku not found", detailsOK: true},
		{code: CodeInvalidSize, status: http.StatusBadRequest, publicMsg: "size code not recognized", detailsOK: true},
		{code: CodeInvalidQuantity, status: http.StatusBadRequest, publicMsg: "quantity must be a positive integer", detailsOK: true},
		{code: CodeOutOfStock, status: http.StatusConflict, publicMsg: "no stock left for that sku and size", detailsOK: true},
		{code: CodePriceUnavailable, status: http.StatusUnprocessableEntity, publicMsg: "no sale price given and no usable default price", detailsOK: true},
		{code: CodeSaleNotFound, status: http.StatusNotFound, publicMsg: "no matching sale to refund", detailsOK: true},
		{code: CodeConcurrentModification, status: http.StatusConflict, publicMsg: "record changed concurrently, retry the command", retryable: true, detailsOK: true},
		{code: CodeStoreUnavailable, status: http.StatusServiceUnavailable, publicMsg: "spreadsheet storage unavailable", retryable: true, detailsOK: true},
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
	base := New(CodeInvalidQuantity, "qty must be > 0")
	if base.Code() != CodeInvalidQuantity {
		t.Fatalf("expected invalid quantity code, got %s", base.Code())
	}
	if base.Message() != "qty must be > 0" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"qty": -3}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeStoreUnavailable, cause, "append ledger row")
	if wrapped.Code() != CodeStoreUnavailable {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("wrapped error should unwrap to cause")
	}
	if Wrap(CodeInternal, nil, "no cause").Unwrap() != nil {
		t.Fatalf("wrapping nil should not carry a cause")
	}
}

func TestAsFindsTypedError(t *testing.T) {
	typed := New(CodeOutOfStock, "M is empty")
	chained := Wrap(CodeInternal, typed, "outer")

	if found := As(chained); found == nil || found.Code() != CodeInternal {
		t.Fatalf("expected outermost typed error, got %v", found)
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatalf("plain errors should not match")
	}
	if As(nil) != nil {
		t.Fatalf("nil should not match")
	}
}

func TestDumpCapturesGoogleAPIError(t *testing.T) {
	apiErr := &googleapi.Error{Code: http.StatusTooManyRequests, Message: "quota exceeded"}
	wrapped := Wrap(CodeStoreUnavailable, apiErr, "write cell")

	d := Dump(wrapped)
	if d.Code != CodeStoreUnavailable {
		t.Fatalf("unexpected code %s", d.Code)
	}
	if d.GoogleStatus != http.StatusTooManyRequests {
		t.Fatalf("expected google status captured, got %d", d.GoogleStatus)
	}
	if d.GoogleMessage != "quota exceeded" {
		t.Fatalf("unexpected google message %q", d.GoogleMessage)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected error chain, got %v", d.Chain)
	}
}
