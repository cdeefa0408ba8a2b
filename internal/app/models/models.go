package models

import (
	"fmt"
	"strings"
)

// StudentStatus is set by an operator; it is never derived from the balance.
type StudentStatus string

const (
	StatusNotCompleted StudentStatus = "not completed"
	StatusCompleted    StudentStatus = "completed"
	StatusTravelled    StudentStatus = "travelled"
)

// ParseStudentStatus accepts the wire values plus the underscore spelling
// used in bucket filters ("not_completed").
func ParseStudentStatus(s string) (StudentStatus, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "_", " ")
	switch StudentStatus(norm) {
	case StatusNotCompleted:
		return StatusNotCompleted, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusTravelled:
		return StatusTravelled, nil
	}
	return "", fmt.Errorf("status must be one of %q, %q, %q", StatusCompleted, StatusTravelled, StatusNotCompleted)
}

// Bucket is one of the four read projections over the registry.
type Bucket string

const (
	BucketAll          Bucket = ""
	BucketNotCompleted Bucket = "not_completed"
	BucketCompleted    Bucket = "completed"
	BucketTravelled    Bucket = "travelled"
	BucketOnLoan       Bucket = "on_loan"
)

// Buckets lists the four projections in display order.
var Buckets = []Bucket{BucketNotCompleted, BucketCompleted, BucketTravelled, BucketOnLoan}

// ParseBucket accepts the bucket names, the status wire values and "" for all.
func ParseBucket(s string) (Bucket, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, " ", "_")
	switch Bucket(norm) {
	case BucketAll, BucketNotCompleted, BucketCompleted, BucketTravelled, BucketOnLoan:
		return Bucket(norm), nil
	case "onloan", "loan":
		return BucketOnLoan, nil
	}
	return "", fmt.Errorf("bucket must be one of not_completed, completed, travelled, on_loan")
}

// Status returns the status a bucket selects on, if it is a status bucket.
func (b Bucket) Status() (StudentStatus, bool) {
	switch b {
	case BucketNotCompleted:
		return StatusNotCompleted, true
	case BucketCompleted:
		return StatusCompleted, true
	case BucketTravelled:
		return StatusTravelled, true
	}
	return "", false
}

// Matches reports whether a student belongs to the bucket.
func (b Bucket) Matches(s *Student) bool {
	if b == BucketAll {
		return true
	}
	if b == BucketOnLoan {
		return s.IsOnLoan
	}
	status, _ := b.Status()
	return s.Status == status
}

// PaymentMethod is the closed set of ways a payment can be made.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodOnline       PaymentMethod = "online"
	MethodOther        PaymentMethod = "other"
)

var methodAliases = map[string]PaymentMethod{
	"cash":           MethodCash,
	"card":           MethodCard,
	"credit_card":    MethodCard,
	"debit_card":     MethodCard,
	"bank_transfer":  MethodBankTransfer,
	"bank":           MethodBankTransfer,
	"online":         MethodOnline,
	"online_payment": MethodOnline,
	"other":          MethodOther,
}

// ParsePaymentMethod normalizes UI labels ("Credit Card", "Bank Transfer")
// onto the enumerated set.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.Join(strings.FieldsFunc(norm, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
	if m, ok := methodAliases[norm]; ok {
		return m, nil
	}
	return "", fmt.Errorf("payment method %q is not one of cash, card, bank_transfer, online, other", s)
}
