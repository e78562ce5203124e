package payments

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	"github.com/mountemart/backend/pkg/esewa"
	"github.com/mountemart/backend/pkg/khalti"
	pkgstripe "github.com/mountemart/backend/pkg/stripe"
)

// EsewaGateway polls the eSewa transaction status API.
type EsewaGateway interface {
	CheckStatus(ctx context.Context, productCode, transactionUUID string, totalAmount decimal.Decimal) (esewa.Status, string, error)
}

// KhaltiGateway looks up a Khalti payment by its pidx.
type KhaltiGateway interface {
	Lookup(ctx context.Context, pidx string) (khalti.Status, string, error)
}

// CardGateway exposes the subset of Stripe payment intent operations the
// reconciler needs.
type CardGateway interface {
	CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	ConfirmIntent(ctx context.Context, id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error)
}

type cardGatewayWrapper struct{}

// NewCardGateway wraps the initialized Stripe client so the reconciler can
// be tested without network calls.
func NewCardGateway(api *pkgstripe.Client) CardGateway {
	if api == nil {
		return nil
	}
	return &cardGatewayWrapper{}
}

func (w *cardGatewayWrapper) CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}

func (w *cardGatewayWrapper) ConfirmIntent(ctx context.Context, id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.Confirm(id, params)
}
