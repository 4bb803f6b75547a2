package core

import "github.com/shopspring/decimal"

// Balance reconciliation rules for collections.
//
// A collection starts with balance 0 and status pending: balance 0 while
// pending means "no partial payment recorded yet", not "nothing owed". The
// first partial payment makes the balance the remaining amount owed; from
// then on the balance counts down toward zero. All arithmetic is decimal so
// repeated partial payments cannot drift the way float comparisons would.

// applyPayment returns the collection balance and status after recording a
// payment of pay against a collection owing amount with the given running
// balance.
func applyPayment(amount, balance, pay decimal.Decimal) (decimal.Decimal, CollectionStatus) {
	if balance.IsZero() {
		// No prior partial payment: compare against the full amount owed.
		if pay.LessThan(amount) {
			return amount.Sub(pay), CollectionPending
		}
		return decimal.Zero, CollectionPaid
	}
	remaining := balance.Sub(pay)
	if remaining.IsPositive() {
		return remaining, CollectionPending
	}
	return decimal.Zero, CollectionPaid
}

// reversePayment returns the collection balance and status after cancelling
// a previously recorded payment of pay. The restored balance is clamped to
// the collection amount so a reversal can never leave more owed than the
// original invoice.
func reversePayment(amount, balance, pay decimal.Decimal) (decimal.Decimal, CollectionStatus) {
	if amount.Equal(pay) {
		// Exact full payment: balance was never touched, only the status.
		return balance, CollectionPending
	}
	restored := balance.Add(pay)
	if restored.GreaterThan(amount) {
		restored = amount
	}
	return restored, CollectionPending
}

// shiftPayment returns the collection balance and status after a payment is
// corrected from oldPay to newPay. The delta is applied to the running
// balance, clamped at zero, and the status re-derived against the amount.
func shiftPayment(amount, balance, oldPay, newPay decimal.Decimal) (decimal.Decimal, CollectionStatus) {
	shifted := balance.Add(oldPay).Sub(newPay)
	if shifted.IsNegative() {
		shifted = decimal.Zero
	}
	if shifted.GreaterThan(amount) {
		shifted = amount
	}
	if shifted.IsZero() {
		return shifted, CollectionPaid
	}
	return shifted, CollectionPending
}

// amountPaidOf computes the amount actually received: the payment amount
// less any withholding-tax (2307) portion.
func amountPaidOf(amount, withholding decimal.Decimal) decimal.Decimal {
	return amount.Sub(withholding)
}
