package sale

import (
	"errors"
	"net/http"

	"github.com/noah-isme/boutique-pos/internal/common"
)

// Kind is the machine readable error kind reported to callers.
type Kind string

const (
	KindRequestInvalid      Kind = "REQUEST_INVALID"
	KindSaleEmpty           Kind = "SALE_EMPTY"
	KindCodeRequired        Kind = "CODE_REQUIRED"
	KindQuantityInvalid     Kind = "QUANTITY_INVALID"
	KindDiscountInvalid     Kind = "DISCOUNT_INVALID"
	KindVariantNotFound     Kind = "VARIANT_NOT_FOUND"
	KindSaleNotFound        Kind = "SALE_NOT_FOUND"
	KindStockInsufficient   Kind = "STOCK_INSUFFICIENT"
	KindPaymentInsufficient Kind = "PAYMENT_INSUFFICIENT"
	KindVariantLookupFailed Kind = "VARIANT_LOOKUP_FAILED"
	KindPersistenceFailed   Kind = "PERSISTENCE_FAILED"
	KindInternal            Kind = "INTERNAL"
)

func statusFor(kind Kind) int {
	switch kind {
	case KindRequestInvalid, KindSaleEmpty, KindCodeRequired, KindQuantityInvalid, KindDiscountInvalid:
		return http.StatusBadRequest
	case KindVariantNotFound, KindSaleNotFound:
		return http.StatusNotFound
	case KindStockInsufficient, KindPaymentInsufficient:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, message string, cause error, details map[string]any) *common.AppError {
	appErr := common.NewAppError(string(kind), message, statusFor(kind), cause)
	if len(details) > 0 {
		appErr.Details = details
	}
	return appErr
}

// KindOf returns the kind carried by err. It returns "" for nil and
// KindInternal for errors raised outside this package.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return Kind(appErr.Code)
	}
	return KindInternal
}
