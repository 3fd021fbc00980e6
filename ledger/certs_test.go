package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCert(issue, expiry int64) CertificationInput {
	return CertificationInput{
		CertType:     "USDA Organic",
		CertNumber:   "ORG-2024-0042",
		Issuer:       "USDA",
		IssueDate:    issue,
		ExpiryDate:   expiry,
		DocumentHash: testHash("cert-doc"),
	}
}

func TestAddCertificationUnknownProduct(t *testing.T) {
	l := newTestLedger(t)

	lerr := l.AddCertification(5, testCert(1700000000, 1800000000))
	require.NotNil(t, lerr)
	assert.Equal(t, ErrCodeNotFound, lerr.Code)
}

func TestAddCertificationValidation(t *testing.T) {
	l := newTestLedger(t)
	id, lerr := l.Register(testInput("cert-validation"))
	require.Nil(t, lerr)

	in := testCert(1700000000, 1800000000)
	in.CertType = ""
	lerr = l.AddCertification(id, in)
	require.NotNil(t, lerr)
	assert.Equal(t, ErrCodeValidation, lerr.Code)

	// expiry must be strictly after issue
	lerr = l.AddCertification(id, testCert(1800000000, 1700000000))
	require.NotNil(t, lerr)
	assert.Equal(t, ErrCodeValidation, lerr.Code)

	lerr = l.AddCertification(id, testCert(1700000000, 1700000000))
	require.NotNil(t, lerr)
	assert.Equal(t, ErrCodeValidation, lerr.Code)

	certs, lerr := l.GetCertifications(id)
	require.Nil(t, lerr)
	assert.Empty(t, certs)
}

func TestCertificationValidityDerivedFromExpiry(t *testing.T) {
	l := newTestLedger(t)
	id, lerr := l.Register(testInput("cert-validity"))
	require.Nil(t, lerr)

	now := time.Unix(1750000000, 0)
	l.now = func() time.Time { return now }

	// expired
	require.Nil(t, l.AddCertification(id, testCert(1600000000, now.Unix()-1)))
	// still valid, expiry in the future
	require.Nil(t, l.AddCertification(id, testCert(1600000000, now.Unix()+3600)))
	// boundary: expiring exactly now is still valid
	require.Nil(t, l.AddCertification(id, testCert(1600000000, now.Unix())))

	certs, lerr := l.GetCertifications(id)
	require.Nil(t, lerr)
	require.Len(t, certs, 3)
	assert.False(t, certs[0].IsValid)
	assert.True(t, certs[1].IsValid)
	assert.True(t, certs[2].IsValid)

	// Validity is recomputed per read, not stored
	l.now = func() time.Time { return now.Add(2 * time.Hour) }
	certs, lerr = l.GetCertifications(id)
	require.Nil(t, lerr)
	assert.False(t, certs[1].IsValid)
}

func TestGetCertificationsPreservesAppendOrder(t *testing.T) {
	l := newTestLedger(t)
	id, lerr := l.Register(testInput("cert-order"))
	require.Nil(t, lerr)

	numbers := []string{"CERT-1", "CERT-2", "CERT-3"}
	for _, number := range numbers {
		in := testCert(1700000000, 1800000000)
		in.CertNumber = number
		require.Nil(t, l.AddCertification(id, in))
	}

	certs, lerr := l.GetCertifications(id)
	require.Nil(t, lerr)
	require.Len(t, certs, 3)
	for i, cert := range certs {
		assert.Equal(t, numbers[i], cert.CertNumber)
		assert.Equal(t, uint64(i), cert.Seq)
	}
}

func TestGetCertificationsUnknownProduct(t *testing.T) {
	l := newTestLedger(t)

	_, lerr := l.GetCertifications(3)
	require.NotNil(t, lerr)
	assert.Equal(t, ErrCodeNotFound, lerr.Code)
}
