package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallbackFromForm(t *testing.T) {
	form := map[string]string{
		"key":           "mkey",
		"txnid":         " txn-1 ",
		"amount":        "250.00",
		"productinfo":   "CraftHaven order",
		"firstname":     "Asha",
		"email":         "asha@example.com",
		"mihpayid":      "98765",
		"status":        " SUCCESS ",
		"hash":          "abc123",
		"udf1":          `{"items":[]}`,
		"udf2":          `{"userId":1}`,
		"error_Message": "No Error",
		"mode":          "CC",
	}
	cb := CallbackFromForm(func(key string) string { return form[key] })

	assert.Equal(t, "txn-1", cb.TxnID)
	assert.Equal(t, "success", cb.Status)
	assert.Equal(t, "98765", cb.GatewayTxnID)
	assert.Equal(t, `{"userId":1}`, cb.UDF2)
	assert.Equal(t, "No Error", cb.ErrorMessage)
	assert.Equal(t, "CC", cb.Mode)
	// absent fields decode to empty, not panic
	assert.Empty(t, cb.BankCode)
}

func TestDecodePayloads(t *testing.T) {
	base := CallbackFields{
		UDF1: `{"items":[{"productId":3,"title":"Clay mug","quantity":2,"unitPrice":350}],"shippingTotal":49}`,
		UDF2: `{"userId":42,"name":"Asha","email":"asha@example.com"}`,
		UDF3: `{"couponCode":"WELCOME10","source":"web"}`,
	}

	detail, err := DecodePayloads(base, true)
	assert.NoError(t, err)
	assert.Len(t, detail.Order.Items, 1)
	assert.Equal(t, uint(3), detail.Order.Items[0].ProductID)
	assert.Equal(t, 2, detail.Order.Items[0].Quantity)
	assert.Equal(t, 49.0, detail.Order.ShippingTotal)
	assert.Equal(t, uint(42), detail.User.UserID)
	assert.Equal(t, "WELCOME10", detail.Extra.CouponCode)
}

func TestDecodePayloadsUnescapesEntities(t *testing.T) {
	cb := CallbackFields{
		UDF1: `{&quot;items&quot;:[{&quot;productId&quot;:5,&quot;quantity&quot;:1,&quot;unitPrice&quot;:120}],&quot;shippingTotal&quot;:0}`,
		UDF2: `{&quot;userId&quot;:7}`,
	}

	detail, err := DecodePayloads(cb, true)
	assert.NoError(t, err)
	assert.Equal(t, uint(5), detail.Order.Items[0].ProductID)
	assert.Equal(t, uint(7), detail.User.UserID)
}

func TestDecodePayloadsDegradesBrokenOptionalSlots(t *testing.T) {
	t.Run("broken order slot", func(t *testing.T) {
		cb := CallbackFields{UDF1: "{not json", UDF2: `{"userId":1}`}
		detail, err := DecodePayloads(cb, true)
		assert.NoError(t, err)
		assert.Nil(t, detail.Order)
		assert.Equal(t, uint(1), detail.User.UserID)
	})

	t.Run("broken extra slot", func(t *testing.T) {
		cb := CallbackFields{
			UDF1: `{"items":[{"productId":5,"quantity":1,"unitPrice":120}]}`,
			UDF2: `{"userId":1}`,
			UDF3: "{broken extra",
		}
		detail, err := DecodePayloads(cb, true)
		assert.NoError(t, err)
		assert.Nil(t, detail.Extra)
		assert.NotNil(t, detail.Order)
	})
}

func TestDecodePayloadsStrictRequiresIdentity(t *testing.T) {
	t.Run("missing user identity", func(t *testing.T) {
		cb := CallbackFields{UDF1: `{"items":[]}`}
		_, err := DecodePayloads(cb, true)
		assert.ErrorIs(t, err, ErrIdentityMissing)
	})

	t.Run("zero user id", func(t *testing.T) {
		cb := CallbackFields{UDF2: `{"userId":0,"name":"ghost"}`}
		_, err := DecodePayloads(cb, true)
		assert.ErrorIs(t, err, ErrIdentityMissing)
	})

	t.Run("undecodable user slot", func(t *testing.T) {
		cb := CallbackFields{UDF2: "not even close"}
		_, err := DecodePayloads(cb, true)
		assert.ErrorIs(t, err, ErrIdentityMissing)
	})
}

func TestDecodePayloadsLenientDegradesToNil(t *testing.T) {
	cb := CallbackFields{
		UDF1: "{broken",
		UDF2: "also broken",
		UDF3: "",
	}

	detail, err := DecodePayloads(cb, false)
	assert.NoError(t, err)
	assert.Nil(t, detail.Order)
	assert.Nil(t, detail.User)
	assert.Nil(t, detail.Extra)
}
