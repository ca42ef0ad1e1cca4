package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidUserType(t *testing.T) {
	assert.True(t, IsValidUserType(UserTypeCustomer))
	assert.True(t, IsValidUserType(UserTypeTechnician))
	assert.False(t, IsValidUserType(""))
	assert.False(t, IsValidUserType("admin"))
}

func TestIsValidPaymentMethod(t *testing.T) {
	assert.True(t, IsValidPaymentMethod(PaymentMethodCard))
	assert.True(t, IsValidPaymentMethod(PaymentMethodCash))
	assert.True(t, IsValidPaymentMethod(PaymentMethodGcash))
	assert.False(t, IsValidPaymentMethod("check"))
	assert.False(t, IsValidPaymentMethod(""))
}
