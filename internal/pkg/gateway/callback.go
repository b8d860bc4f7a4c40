package gateway

import (
	"encoding/json"
	"html"
	"strings"
)

const (
	CallbackStatusSuccess = "success"
	CallbackStatusFailure = "failure"
)

// CallbackFields is the closed record of every form field the payment gateway
// posts to the webhook endpoints. Absent fields decode to explicit empties so
// downstream logic cannot branch on a mistyped key.
type CallbackFields struct {
	Key          string
	TxnID        string
	Amount       string
	ProductInfo  string
	FirstName    string
	Email        string
	Phone        string
	GatewayTxnID string
	Status       string
	Hash         string
	UDF1         string
	UDF2         string
	UDF3         string
	ErrorMessage string
	Mode         string
	BankCode     string
	CardMask     string
}

// CallbackFromForm decodes a form-encoded webhook body through a field getter
// (fiber's c.FormValue). Every known field is read exactly once.
func CallbackFromForm(get func(key string) string) CallbackFields {
	return CallbackFields{
		Key:          strings.TrimSpace(get("key")),
		TxnID:        strings.TrimSpace(get("txnid")),
		Amount:       strings.TrimSpace(get("amount")),
		ProductInfo:  get("productinfo"),
		FirstName:    get("firstname"),
		Email:        strings.TrimSpace(get("email")),
		Phone:        strings.TrimSpace(get("phone")),
		GatewayTxnID: strings.TrimSpace(get("mihpayid")),
		Status:       strings.ToLower(strings.TrimSpace(get("status"))),
		Hash:         strings.TrimSpace(get("hash")),
		UDF1:         get("udf1"),
		UDF2:         get("udf2"),
		UDF3:         get("udf3"),
		ErrorMessage: get("error_Message"),
		Mode:         strings.TrimSpace(get("mode")),
		BankCode:     strings.TrimSpace(get("bankcode")),
		CardMask:     strings.TrimSpace(get("cardnum")),
	}
}

// OrderDetail is the structured order payload the client embedded in the
// first user-defined callback slot.
type OrderDetail struct {
	Items         []OrderItemDetail `json:"items"`
	ShippingTotal float64           `json:"shippingTotal"`
}

type OrderItemDetail struct {
	ProductID uint    `json:"productId"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// UserDetail identifies the paying user. UserID is the identity the commit
// path cannot proceed without.
type UserDetail struct {
	UserID uint   `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}

// ExtraDetail carries optional client context passed through the gateway.
type ExtraDetail struct {
	CouponCode string `json:"couponCode,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Source     string `json:"source,omitempty"`
}

// DecodedDetail bundles the three decoded payload slots. Slots that were
// absent or undecodable on a lenient decode are nil.
type DecodedDetail struct {
	Order *OrderDetail
	User  *UserDetail
	Extra *ExtraDetail
}

// DecodePayloads decodes the HTML-entity-escaped JSON embedded in the three
// user-defined slots. An undecodable slot always degrades to a nil optional
// detail; the committer rejects what it cannot proceed without. Strict mode
// additionally hard-fails when the user identity is unrecoverable, which is
// what the synchronous verify path wants.
func DecodePayloads(cb CallbackFields, strict bool) (*DecodedDetail, error) {
	detail := &DecodedDetail{}

	if err := decodeSlot(cb.UDF1, &detail.Order); err != nil {
		detail.Order = nil
	}
	if err := decodeSlot(cb.UDF2, &detail.User); err != nil {
		detail.User = nil
	}
	if err := decodeSlot(cb.UDF3, &detail.Extra); err != nil {
		detail.Extra = nil
	}

	if strict && (detail.User == nil || detail.User.UserID == 0) {
		return nil, ErrIdentityMissing
	}
	return detail, nil
}

// decodeSlot unescapes and unmarshals one payload slot into target, which
// must be a pointer to a pointer so an empty slot stays nil.
func decodeSlot(raw string, target interface{}) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	unescaped := html.UnescapeString(trimmed)
	return json.Unmarshal([]byte(unescaped), target)
}
