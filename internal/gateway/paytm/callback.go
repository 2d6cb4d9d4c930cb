package paytm

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// Result statuses the gateway reports on callbacks and status queries.
const (
	ResultTxnSuccess = "TXN_SUCCESS"
	ResultTxnFailure = "TXN_FAILURE"
	ResultPending    = "PENDING"
)

// Callback is the shape-agnostic view of a payment-result push. Fields holds
// every signed scalar so the checksum can be verified without caring which
// wire layout the gateway chose.
type Callback struct {
	MerchantID   string
	OrderID      string
	TxnID        string
	ResultStatus string
	Signature    string
	Fields       map[string]string
}

var ErrMalformedCallback = errors.New("malformed callback payload")

// ParseCallback accepts both layouts the gateway is known to send: the nested
// camelCase {body, head} document and the legacy flat UPPERCASE form whose
// signature travels as CHECKSUMHASH.
func ParseCallback(raw []byte) (*Callback, error) {
	var nested struct {
		Body json.RawMessage `json:"body"`
		Head struct {
			Signature string `json:"signature"`
		} `json:"head"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, ErrMalformedCallback
	}

	if len(nested.Body) > 0 && !bytes.Equal(nested.Body, []byte("null")) {
		fields, err := flattenScalars(nested.Body)
		if err != nil {
			return nil, err
		}
		return &Callback{
			MerchantID:   fields["mid"],
			OrderID:      fields["orderId"],
			TxnID:        fields["txnId"],
			ResultStatus: fields["resultStatus"],
			Signature:    nested.Head.Signature,
			Fields:       fields,
		}, nil
	}

	fields, err := flattenScalars(raw)
	if err != nil {
		return nil, err
	}
	signature := fields["CHECKSUMHASH"]
	delete(fields, "CHECKSUMHASH")

	return &Callback{
		MerchantID:   fields["MID"],
		OrderID:      fields["ORDERID"],
		TxnID:        fields["TXNID"],
		ResultStatus: fields["STATUS"],
		Signature:    signature,
		Fields:       fields,
	}, nil
}

// flattenScalars renders every scalar leaf of the document as a string under
// its own key, descending into nested objects (resultInfo and friends).
// Numbers keep their wire formatting so re-signing matches byte for byte.
func flattenScalars(raw []byte) (map[string]string, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var doc map[string]interface{}
	if err := decoder.Decode(&doc); err != nil {
		return nil, ErrMalformedCallback
	}

	fields := map[string]string{}
	flattenInto(fields, doc)
	return fields, nil
}

func flattenInto(fields map[string]string, doc map[string]interface{}) {
	for key, value := range doc {
		switch v := value.(type) {
		case string:
			fields[key] = v
		case json.Number:
			fields[key] = v.String()
		case bool:
			fields[key] = strconv.FormatBool(v)
		case nil:
			fields[key] = ""
		case map[string]interface{}:
			flattenInto(fields, v)
		}
	}
}
