package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCertificationValidAt(t *testing.T) {
	cert := Certification{IssueDate: 1700000000, ExpiryDate: 1800000000}

	assert.True(t, cert.ValidAt(time.Unix(1750000000, 0)))
	assert.True(t, cert.ValidAt(time.Unix(1800000000, 0)), "expiry instant itself is still valid")
	assert.False(t, cert.ValidAt(time.Unix(1800000001, 0)))
}

func TestRoleRoundTrip(t *testing.T) {
	assert.Equal(t, "partner", RolePartner.String())
	assert.Equal(t, "customer", RoleCustomer.String())

	role, ok := ParseRole("partner")
	assert.True(t, ok)
	assert.Equal(t, RolePartner, role)

	_, ok = ParseRole("admin")
	assert.False(t, ok)
}
