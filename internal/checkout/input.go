package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// PlaceOrderInput carries the checkout form.
type PlaceOrderInput struct {
	ShippingInfo   types.ShippingInfo
	PaymentMethod  enums.PaymentMethod
	ShippingMethod enums.ShippingMethod
	ShippingFee    decimal.Decimal
}

// validate runs before any store access so a rejected form never touches the cart.
func (in PlaceOrderInput) validate() (PlaceOrderInput, error) {
	problems := map[string]string{}
	if missing := in.ShippingInfo.MissingFields(); len(missing) > 0 {
		for _, field := range missing {
			problems["shipping_info."+field] = "required"
		}
	}
	if !in.PaymentMethod.IsValid() {
		problems["payment_method"] = "unsupported payment method"
	}
	if !in.ShippingMethod.IsValid() {
		problems["shipping_method"] = "unsupported shipping method"
	}
	switch {
	case in.ShippingFee.IsNegative():
		problems["shipping_fee"] = "must be greater than or equal to 0"
	case !pricing.ValidAmount(in.ShippingFee):
		problems["shipping_fee"] = "must have at most 2 decimal places and not exceed " + pricing.MaxAmount.String()
	}
	if len(problems) > 0 {
		return in, pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout input").WithDetails(problems)
	}
	in.ShippingInfo = in.ShippingInfo.Normalize()
	return in, nil
}
