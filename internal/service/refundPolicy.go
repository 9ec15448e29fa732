package service

// RefundQuote is the outcome of the refund policy for one paid order.
type RefundQuote struct {
	Percent     int
	AmountCents int64
}

// QuoteRefund applies the cancellation refund schedule to a paid amount
// given the time remaining before the session starts:
//
//	more than 24h        -> full refund
//	more than 12h, up to 24h -> half refund
//	12h or less          -> no refund
//
// The half refund is rounded half up to the nearest cent. The function is
// pure; callers are responsible for computing hoursUntilStart from a single
// clock reading so the quote and the cutoff comparison agree.
func QuoteRefund(amountCents int64, hoursUntilStart float64) RefundQuote {
	switch {
	case hoursUntilStart > 24:
		return RefundQuote{Percent: 100, AmountCents: amountCents}
	case hoursUntilStart > 12:
		return RefundQuote{Percent: 50, AmountCents: (amountCents*50 + 50) / 100}
	default:
		return RefundQuote{Percent: 0, AmountCents: 0}
	}
}
