package paytm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"tably/internal/gateway/paytm"
	"tably/pkg/checksum"
)

func Test_ParseCallback_Nested(t *testing.T) {
	assertions := assert.New(t)

	raw := []byte(`{
		"body": {
			"mid": "TablyRest01",
			"orderId": "ORD1001",
			"txnId": "202608281234",
			"txnAmount": "250.00",
			"resultInfo": {
				"resultStatus": "TXN_SUCCESS",
				"resultCode": "01",
				"resultMsg": "Txn Success"
			}
		},
		"head": {"signature": "c2lnbmF0dXJl"}
	}`)

	cb, err := paytm.ParseCallback(raw)
	assertions.NoError(err)
	assertions.Equal("TablyRest01", cb.MerchantID)
	assertions.Equal("ORD1001", cb.OrderID)
	assertions.Equal("202608281234", cb.TxnID)
	assertions.Equal(paytm.ResultTxnSuccess, cb.ResultStatus)
	assertions.Equal("c2lnbmF0dXJl", cb.Signature)

	// resultInfo leaves are lifted to the top so verification sees them.
	assertions.Equal("TXN_SUCCESS", cb.Fields["resultStatus"])
	assertions.Equal("250.00", cb.Fields["txnAmount"])
}

func Test_ParseCallback_Flat(t *testing.T) {
	assertions := assert.New(t)

	raw := []byte(`{
		"MID": "TablyRest01",
		"ORDERID": "ORD1001",
		"TXNID": "202608281234",
		"TXNAMOUNT": "250.00",
		"STATUS": "TXN_FAILURE",
		"RESPCODE": "227",
		"RESPMSG": "Declined by bank",
		"CHECKSUMHASH": "c2lnbmF0dXJl"
	}`)

	cb, err := paytm.ParseCallback(raw)
	assertions.NoError(err)
	assertions.Equal("TablyRest01", cb.MerchantID)
	assertions.Equal("ORD1001", cb.OrderID)
	assertions.Equal(paytm.ResultTxnFailure, cb.ResultStatus)
	assertions.Equal("c2lnbmF0dXJl", cb.Signature)

	// The signature itself is excluded from the signed field set.
	_, present := cb.Fields["CHECKSUMHASH"]
	assertions.False(present)
	assertions.Equal("227", cb.Fields["RESPCODE"])
}

func Test_ParseCallback_NumberFormattingPreserved(t *testing.T) {
	raw := []byte(`{"ORDERID": "ORD1", "TXNAMOUNT": 250.50, "CHECKSUMHASH": "x"}`)

	cb, err := paytm.ParseCallback(raw)
	assert.NoError(t, err)
	assert.Equal(t, "250.50", cb.Fields["TXNAMOUNT"])
}

func Test_ParseCallback_Malformed(t *testing.T) {
	_, err := paytm.ParseCallback([]byte("not json"))
	assert.ErrorIs(t, err, paytm.ErrMalformedCallback)
}

func Test_ParseCallback_VerifiesAgainstChecksum(t *testing.T) {
	assertions := assert.New(t)
	key := "0123456789abcdef-secret"

	fields := map[string]string{
		"MID":     "TablyRest01",
		"ORDERID": "ORD1001",
		"TXNID":   "202608281234",
		"STATUS":  "TXN_SUCCESS",
	}
	sig, err := checksum.Sign(fields, key)
	assertions.NoError(err)

	raw := []byte(`{
		"MID": "TablyRest01",
		"ORDERID": "ORD1001",
		"TXNID": "202608281234",
		"STATUS": "TXN_SUCCESS",
		"CHECKSUMHASH": "` + sig + `"
	}`)

	cb, err := paytm.ParseCallback(raw)
	assertions.NoError(err)
	assertions.True(checksum.Verify(cb.Fields, cb.Signature, key))
}
