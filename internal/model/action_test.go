package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionValid(t *testing.T) {
	assert.True(t, ActionIn.Valid())
	assert.True(t, ActionOut.Valid())
	assert.False(t, Action("transfer").Valid())
	assert.False(t, Action("").Valid())
}

func TestActionSign(t *testing.T) {
	assert.Equal(t, 5, ActionIn.Sign(5))
	assert.Equal(t, -5, ActionOut.Sign(5))
	// magnitude is taken as unsigned regardless of the caller's sign
	assert.Equal(t, 5, ActionIn.Sign(-5))
	assert.Equal(t, -5, ActionOut.Sign(-5))
}

func TestTransactionMagnitude(t *testing.T) {
	assert.Equal(t, 4, Transaction{Quantity: -4}.Magnitude())
	assert.Equal(t, 4, Transaction{Quantity: 4}.Magnitude())
}

func TestSupplierOffers(t *testing.T) {
	src := Supplier{SupplierCode: "S001", SupplierType: ActionIn}
	assert.True(t, src.Offers(ActionIn))
	assert.False(t, src.Offers(ActionOut))
}
