package signature

import (
	"strings"
	"testing"
	"time"

	"dms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFields() SignableFields {
	dob := time.Date(1990, 5, 10, 0, 0, 0, 0, time.UTC)
	issued := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC)
	return SignableFields{
		RecipientName:  "Jane Roe",
		DateOfBirth:    &dob,
		PlaceOfBirth:   "Springfield",
		Level:          "Excellent",
		DegreeTypeID:   "3",
		IssueDate:      &issued,
		SerialNumber:   "A123",
		RegistryNumber: "R456",
		PlaceOfIssue:   "Springfield",
		SignerName:     "Dean Smith",
		IssuerID:       "1",
		Status:         "APPROVED",
		CreatedAt:      &created,
		SignerEmail:    "certifier@example.com",
	}
}

func TestCanonicalizeDeterministic(t *testing.T) {
	first, err := Canonicalize(sampleFields())
	require.NoError(t, err)

	// A freshly constructed but equal snapshot must serialize identically.
	second, err := Canonicalize(sampleFields())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCanonicalizeNilDates(t *testing.T) {
	fields := sampleFields()
	fields.DateOfBirth = nil
	fields.IssueDate = nil
	fields.CreatedAt = nil

	payload, err := Canonicalize(fields)
	require.NoError(t, err)

	text := string(payload)
	assert.Contains(t, text, `"dateOfBirth":null`)
	assert.Contains(t, text, `"issueDate":null`)
	assert.Contains(t, text, `"createdAt":null`)
	assert.NotContains(t, text, "Invalid")
	assert.NotContains(t, text, `"dateOfBirth":""`)
}

func TestCanonicalizeKeyOrder(t *testing.T) {
	payload, err := Canonicalize(sampleFields())
	require.NoError(t, err)

	// Keys must appear in lexicographic order.
	text := string(payload)
	keys := []string{
		"cloudFile", "createdAt", "dateOfBirth", "degreeTypeId",
		"fileAttachment", "issueDate", "issuerId", "level",
		"placeOfBirth", "placeOfIssue", "recipientName", "registryNumber",
		"serialNumber", "signerEmail", "signerName", "status",
	}
	last := -1
	for _, key := range keys {
		idx := strings.Index(text, `"`+key+`"`)
		require.GreaterOrEqual(t, idx, 0, "key %s missing", key)
		assert.Greater(t, idx, last, "key %s out of order", key)
		last = idx
	}
}

func TestCanonicalizeFieldChangesOutput(t *testing.T) {
	base, err := Canonicalize(sampleFields())
	require.NoError(t, err)

	mutated := sampleFields()
	mutated.SerialNumber = "A124"
	changed, err := Canonicalize(mutated)
	require.NoError(t, err)

	assert.NotEqual(t, base, changed)
}

func TestSignableFromDegree(t *testing.T) {
	dob := time.Date(1990, 5, 10, 0, 0, 0, 0, time.UTC)
	email := "certifier@example.com"
	degree := &models.Degree{
		RecipientName:  "Jane Roe",
		DateOfBirth:    &dob,
		DegreeTypeID:   3,
		SerialNumber:   "A123",
		RegistryNumber: "R456",
		IssuerID:       7,
		Status:         models.StatusApproved,
		SignerEmail:    &email,
	}

	fields := SignableFromDegree(degree)

	assert.Equal(t, "3", fields.DegreeTypeID)
	assert.Equal(t, "7", fields.IssuerID)
	assert.Equal(t, email, fields.SignerEmail)
	// Zero CreatedAt (never persisted) stays nil, not a zero timestamp.
	assert.Nil(t, fields.CreatedAt)

	// Snapshots of the same row are canonically identical no matter when
	// they were taken.
	a, err := Canonicalize(fields)
	require.NoError(t, err)
	b, err := Canonicalize(SignableFromDegree(degree))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
