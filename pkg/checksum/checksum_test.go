package checksum_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"tably/pkg/checksum"
)

const testKey = "0123456789abcdef-merchant-key"

func sampleFields() map[string]string {
	return map[string]string{
		"mid":          "TablyRest01",
		"orderId":      "ORD17561234560042",
		"amount":       "250.00",
		"businessType": "UPI_QR_CODE",
		"posId":        "POS-T12",
	}
}

func Test_CanonicalString(t *testing.T) {
	assertions := assert.New(t)

	t.Run("SortsByKey", func(t *testing.T) {
		got := checksum.CanonicalString(map[string]string{
			"orderId": "O1",
			"amount":  "10.00",
			"mid":     "M1",
		})
		assertions.Equal("10.00|M1|O1", got)
	})

	t.Run("AbsentValueRendersEmpty", func(t *testing.T) {
		got := checksum.CanonicalString(map[string]string{
			"b": "",
			"a": "x",
		})
		assertions.Equal("x|", got)
	})
}

func Test_SignVerify(t *testing.T) {
	assertions := assert.New(t)

	t.Run("RoundTrip", func(t *testing.T) {
		sig, err := checksum.Sign(sampleFields(), testKey)
		assertions.NoError(err)
		assertions.NotEmpty(sig)
		assertions.True(checksum.Verify(sampleFields(), sig, testKey))
	})

	t.Run("OrderIndependent", func(t *testing.T) {
		// Insertion order of the map must not matter: a signature over one
		// ordering verifies against any other ordering of the same set.
		reordered := map[string]string{}
		reordered["posId"] = "POS-T12"
		reordered["businessType"] = "UPI_QR_CODE"
		reordered["amount"] = "250.00"
		reordered["orderId"] = "ORD17561234560042"
		reordered["mid"] = "TablyRest01"

		sig, err := checksum.Sign(sampleFields(), testKey)
		assertions.NoError(err)
		assertions.True(checksum.Verify(reordered, sig, testKey))
	})

	t.Run("SaltVariesCiphertext", func(t *testing.T) {
		first, err := checksum.Sign(sampleFields(), testKey)
		assertions.NoError(err)
		second, err := checksum.Sign(sampleFields(), testKey)
		assertions.NoError(err)
		assertions.NotEqual(first, second)
		assertions.True(checksum.Verify(sampleFields(), first, testKey))
		assertions.True(checksum.Verify(sampleFields(), second, testKey))
	})

	t.Run("TamperedFieldFails", func(t *testing.T) {
		sig, err := checksum.Sign(sampleFields(), testKey)
		assertions.NoError(err)

		tampered := sampleFields()
		tampered["amount"] = "2500.00"
		assertions.False(checksum.Verify(tampered, sig, testKey))
	})

	t.Run("WrongKeyFails", func(t *testing.T) {
		sig, err := checksum.Sign(sampleFields(), testKey)
		assertions.NoError(err)
		assertions.False(checksum.Verify(sampleFields(), sig, "another-merchant-key!!"))
	})
}

func Test_Sign_ShortKey(t *testing.T) {
	_, err := checksum.Sign(sampleFields(), "too-short")
	assert.ErrorIs(t, err, checksum.ErrKeyTooShort)
}

func Test_Verify_MalformedSignature(t *testing.T) {
	assertions := assert.New(t)

	// None of these may panic or error; they are all just invalid.
	assertions.False(checksum.Verify(sampleFields(), "", testKey))
	assertions.False(checksum.Verify(sampleFields(), "not base64 !!!", testKey))
	assertions.False(checksum.Verify(sampleFields(), "c2hvcnQ=", testKey))
	assertions.False(checksum.Verify(sampleFields(), "AAAAAAAAAAAAAAAAAAAAAA==", testKey))
	assertions.False(checksum.Verify(sampleFields(), "whatever", "short"))
}
