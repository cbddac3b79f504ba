package gateway

import "github.com/suteetoe/erp/internal/apperr"

// Kind names an entity reachable through the gateway
type Kind string

const (
	KindUser        Kind = "user"
	KindCompany     Kind = "company"
	KindContact     Kind = "contact"
	KindProduct     Kind = "product"
	KindInvoice     Kind = "invoice"
	KindInvoiceItem Kind = "invoiceItem"
	KindAttendance  Kind = "attendance"
)

// Kinds lists every allow-listed entity kind
var Kinds = []Kind{
	KindUser,
	KindCompany,
	KindContact,
	KindProduct,
	KindInvoice,
	KindInvoiceItem,
	KindAttendance,
}

// ParseKind rejects anything outside the allow-list
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", apperr.InvalidRequest("model %q is not available", s)
}
