package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalSide(t *testing.T) {
	assert.Equal(t, Debit, NormalSide(TypeAsset))
	assert.Equal(t, Debit, NormalSide(TypeExpense))
	assert.Equal(t, Credit, NormalSide(TypeLiability))
	assert.Equal(t, Credit, NormalSide(TypeEquity))
	assert.Equal(t, Credit, NormalSide(TypeIncome))
}

func TestStepSignConventions(t *testing.T) {
	m := Movement{Debit: dec("100"), Credit: dec("0")}

	// Debit increases a debit-normal balance and decreases a credit-normal one.
	assert.True(t, Step(dec("50"), m, Debit).Equal(dec("150")))
	assert.True(t, Step(dec("50"), m, Credit).Equal(dec("-50")))

	m = Movement{Debit: dec("0"), Credit: dec("30")}
	assert.True(t, Step(dec("50"), m, Debit).Equal(dec("20")))
	assert.True(t, Step(dec("50"), m, Credit).Equal(dec("80")))
}

func TestAccumulateRunningBalances(t *testing.T) {
	movements := []Movement{
		{Debit: dec("500"), Credit: dec("0")},
		{Debit: dec("0"), Credit: dec("300")},
	}

	got := Accumulate(dec("1000"), movements, Debit)
	if assert.Len(t, got, 2) {
		assert.True(t, got[0].Equal(dec("1500")), "after debit 500: %s", got[0])
		assert.True(t, got[1].Equal(dec("1200")), "after credit 300: %s", got[1])
	}
}

func TestAccumulateDeterministic(t *testing.T) {
	movements := []Movement{
		{Debit: dec("12.34"), Credit: dec("0")},
		{Debit: dec("0"), Credit: dec("0.01")},
		{Debit: dec("7.00"), Credit: dec("7.00")},
	}
	a := Accumulate(dec("9.99"), movements, Credit)
	b := Accumulate(dec("9.99"), movements, Credit)
	for i := range a {
		assert.True(t, a[i].Equal(b[i]))
	}
}

func TestAccumulateEmpty(t *testing.T) {
	assert.Empty(t, Accumulate(dec("5"), nil, Debit))
}
