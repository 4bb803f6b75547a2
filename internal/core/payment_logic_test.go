package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyPayment_PartialOnUntouchedCollection(t *testing.T) {
	// Invoice of 1000, no payments yet, partial payment of 400.
	balance, status := applyPayment(dec("1000"), dec("0"), dec("400"))

	assert.True(t, balance.Equal(dec("600")), "balance = %s", balance)
	assert.Equal(t, CollectionPending, status)
}

func TestApplyPayment_FullOnUntouchedCollection(t *testing.T) {
	balance, status := applyPayment(dec("1000"), dec("0"), dec("1000"))

	assert.True(t, balance.IsZero())
	assert.Equal(t, CollectionPaid, status)
}

func TestApplyPayment_OverpaymentSettles(t *testing.T) {
	balance, status := applyPayment(dec("1000"), dec("0"), dec("1200"))

	assert.True(t, balance.IsZero())
	assert.Equal(t, CollectionPaid, status)
}

func TestApplyPayment_SecondPartialSettles(t *testing.T) {
	// 400 already paid (balance 600), then 600 more settles the invoice.
	balance, status := applyPayment(dec("1000"), dec("600"), dec("600"))

	assert.True(t, balance.IsZero())
	assert.Equal(t, CollectionPaid, status)
}

func TestApplyPayment_SecondPartialLeavesRemainder(t *testing.T) {
	balance, status := applyPayment(dec("1000"), dec("600"), dec("100"))

	assert.True(t, balance.Equal(dec("500")), "balance = %s", balance)
	assert.Equal(t, CollectionPending, status)
}

func TestApplyPayment_DecimalCents(t *testing.T) {
	// 0.1 + 0.2 style drift must not occur with cent amounts.
	balance, status := applyPayment(dec("100.30"), dec("0"), dec("33.43"))
	assert.True(t, balance.Equal(dec("66.87")), "balance = %s", balance)
	assert.Equal(t, CollectionPending, status)

	balance, status = applyPayment(dec("100.30"), balance, dec("66.87"))
	assert.True(t, balance.IsZero())
	assert.Equal(t, CollectionPaid, status)
}

func TestReversePayment_FullPaymentRestoresUntouchedState(t *testing.T) {
	// A full payment settled the invoice without ever touching the balance.
	// Reversal restores balance 0 + pending, the untouched state.
	balance, status := reversePayment(dec("1000"), dec("0"), dec("1000"))

	assert.True(t, balance.IsZero())
	assert.Equal(t, CollectionPending, status)
}

func TestReversePayment_PartialPaymentRestoresBalance(t *testing.T) {
	balance, status := reversePayment(dec("1000"), dec("600"), dec("400"))

	assert.True(t, balance.Equal(dec("1000")), "balance = %s", balance)
	assert.Equal(t, CollectionPending, status)
}

func TestReversePayment_ClampsAtAmount(t *testing.T) {
	// Reversing can never leave more owed than the invoice total.
	balance, status := reversePayment(dec("1000"), dec("800"), dec("400"))

	assert.True(t, balance.Equal(dec("1000")), "balance = %s", balance)
	assert.Equal(t, CollectionPending, status)
}

func TestReversePayment_RoundTripsApply(t *testing.T) {
	amount := dec("2500")
	pay := dec("700")

	balance, _ := applyPayment(amount, dec("0"), pay)
	restored, status := reversePayment(amount, balance, pay)

	assert.True(t, restored.Equal(amount), "restored = %s", restored)
	assert.Equal(t, CollectionPending, status)
}

func TestShiftPayment_IncreaseSettles(t *testing.T) {
	// Payment corrected from 400 up to 1000 on a 1000 invoice.
	balance, status := shiftPayment(dec("1000"), dec("600"), dec("400"), dec("1000"))

	assert.True(t, balance.IsZero())
	assert.Equal(t, CollectionPaid, status)
}

func TestShiftPayment_DecreaseReopens(t *testing.T) {
	balance, status := shiftPayment(dec("1000"), dec("600"), dec("400"), dec("100"))

	assert.True(t, balance.Equal(dec("900")), "balance = %s", balance)
	assert.Equal(t, CollectionPending, status)
}

func TestShiftPayment_ClampsBothEnds(t *testing.T) {
	balance, status := shiftPayment(dec("1000"), dec("100"), dec("50"), dec("500"))
	assert.True(t, balance.IsZero())
	assert.Equal(t, CollectionPaid, status)

	balance, status = shiftPayment(dec("1000"), dec("900"), dec("400"), dec("50"))
	assert.True(t, balance.Equal(dec("1000")), "balance = %s", balance)
	assert.Equal(t, CollectionPending, status)
}

func TestAmountPaidOf(t *testing.T) {
	got := amountPaidOf(dec("1000"), dec("20"))
	assert.True(t, got.Equal(dec("980")), "amount paid = %s", got)

	got = amountPaidOf(dec("1000"), dec("0"))
	assert.True(t, got.Equal(dec("1000")))
}
