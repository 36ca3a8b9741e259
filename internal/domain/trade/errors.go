package trade

import "github.com/erp/ledger/internal/domain/shared"

// Trade errors
var (
	ErrDuplicateAllocation = shared.NewDomainError("DUPLICATE_ALLOCATION", "Payment is already allocated to this document")
	ErrOverAllocation      = shared.NewDomainError("OVER_ALLOCATION", "Allocation exceeds the unallocated payment amount")
	ErrOverFulfillment     = shared.NewDomainError("OVER_FULFILLMENT", "Fulfilled quantity cannot exceed the ordered quantity")
	ErrNothingToInvoice    = shared.NewDomainError("NOTHING_TO_INVOICE", "Order has no fulfilled quantity left to invoice")
	ErrPartyMismatch       = shared.NewValidationError("PARTY_MISMATCH", "Payment and document belong to different parties")
	ErrNotBillable         = shared.NewValidationError("NOT_BILLABLE", "Payments can only be allocated to bills and invoices")
	ErrInvalidMethod       = shared.NewValidationError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	ErrInvalidSide         = shared.NewValidationError("INVALID_SIDE", "Party side must be CUSTOMER or SUPPLIER")
)
