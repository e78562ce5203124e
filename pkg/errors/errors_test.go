package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
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
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInsufficientStock, status: http.StatusConflict, publicMsg: "insufficient stock, adjust quantities and try again", retryable: true, detailsOK: true},
		{code: CodeInsufficientCoins, status: http.StatusUnprocessableEntity, publicMsg: "reward coin balance is insufficient", detailsOK: true},
		{code: CodeCouponInvalid, status: http.StatusUnprocessableEntity, publicMsg: "coupon is invalid, expired, or already used", detailsOK: true},
		{code: CodeForbiddenDelivery, status: http.StatusUnprocessableEntity, publicMsg: "some products cannot be delivered to the selected district", detailsOK: true},
		{code: CodeExpressUnavailable, status: http.StatusUnprocessableEntity, publicMsg: "express shipping is not available for the selected location", detailsOK: true},
		{code: CodePaymentNotConfirmed, status: http.StatusUnprocessableEntity, publicMsg: "payment could not be confirmed", retryable: true},
		{code: CodeCardPaymentFailed, status: http.StatusPaymentRequired, publicMsg: "card payment failed", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusBadGateway, publicMsg: "dependency unavailable", retryable: true},
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
	base := New(CodeCouponInvalid, "coupon already redeemed")
	if base.Code() != CodeCouponInvalid {
		t.Fatalf("expected coupon code, got %s", base.Code())
	}
	if base.Message() != "coupon already redeemed" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "gateway call")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("wrapped error should unwrap to cause")
	}
	if As(wrapped) == nil {
		t.Fatalf("As should find the typed error")
	}

	detailed := New(CodeForbiddenDelivery, "blocked").WithDetails([]string{"Knife Set"})
	names, ok := detailed.Details().([]string)
	if !ok || len(names) != 1 || names[0] != "Knife Set" {
		t.Fatalf("unexpected details %v", detailed.Details())
	}
}
