package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// PaymentMethodSet is a set of payment method codes stored as a JSON array.
// Order and duplicates are not significant.
type PaymentMethodSet []string

// NewPaymentMethodSet trims, de-duplicates and sorts codes.
func NewPaymentMethodSet(codes ...string) PaymentMethodSet {
	seen := make(map[string]struct{}, len(codes))
	set := make(PaymentMethodSet, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		set = append(set, code)
	}
	sort.Strings(set)
	return set
}

// Equal reports set equality.
func (p PaymentMethodSet) Equal(other PaymentMethodSet) bool {
	a, b := NewPaymentMethodSet(p...), NewPaymentMethodSet(other...)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (p PaymentMethodSet) Contains(code string) bool {
	for _, c := range p {
		if c == code {
			return true
		}
	}
	return false
}

func (p PaymentMethodSet) Value() (driver.Value, error) {
	b, err := json.Marshal(NewPaymentMethodSet(p...))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *PaymentMethodSet) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*p = PaymentMethodSet{}
		return nil
	default:
		return errors.New("type assertion to []byte failed")
	}
	var codes []string
	if err := json.Unmarshal(raw, &codes); err != nil {
		return err
	}
	*p = NewPaymentMethodSet(codes...)
	return nil
}
