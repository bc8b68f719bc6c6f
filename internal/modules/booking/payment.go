// README: Payment method details (CASH, CARD, UPI) and their validation.
package booking

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentCard PaymentMethod = "CARD"
	PaymentUPI  PaymentMethod = "UPI"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

func ParsePaymentStatus(v string) (PaymentStatus, error) {
	switch s := PaymentStatus(strings.ToUpper(strings.TrimSpace(v))); s {
	case PaymentPending, PaymentSuccess, PaymentFailed:
		return s, nil
	}
	return "", fmt.Errorf("%w: unknown payment status %q", ErrValidation, v)
}

type CardDetails struct {
	Last4      string `json:"last4"`
	CardType   string `json:"cardType"`
	BankName   string `json:"bankName"`
	HolderName string `json:"holderName"`
}

type UPIDetails struct {
	Handle   string `json:"handle"`
	Provider string `json:"provider"`
}

type CashDetails struct {
	CollectedBy string `json:"collectedBy,omitempty"`
}

// PaymentDetails is a tagged union: exactly the member matching Method is set.
// A full card number is never retained.
type PaymentDetails struct {
	Method PaymentMethod `json:"method"`
	Card   *CardDetails  `json:"card,omitempty"`
	UPI    *UPIDetails   `json:"upi,omitempty"`
	Cash   *CashDetails  `json:"cash,omitempty"`
}

// PaymentInput is the raw, client-supplied payment form.
type PaymentInput struct {
	Method         string
	CardNumber     string
	CardType       string
	BankName       string
	CardHolderName string
	UPIID          string
	UPIProvider    string
	CollectedBy    string
}

type cardForm struct {
	Number     string `validate:"required,len=16,numeric"`
	CardType   string `validate:"required,oneof=CREDIT DEBIT"`
	BankName   string `validate:"required,max=100"`
	HolderName string `validate:"required,max=100"`
}

type upiForm struct {
	Handle string `validate:"required,contains=@,max=100"`
}

// BuildPayment validates the form for its method and returns the stored details.
func BuildPayment(v *validator.Validate, in PaymentInput) (PaymentDetails, error) {
	method := PaymentMethod(strings.ToUpper(strings.TrimSpace(in.Method)))
	switch method {
	case PaymentCard:
		form := cardForm{
			Number:     strings.ReplaceAll(strings.ReplaceAll(in.CardNumber, " ", ""), "-", ""),
			CardType:   strings.ToUpper(strings.TrimSpace(in.CardType)),
			BankName:   strings.TrimSpace(in.BankName),
			HolderName: strings.TrimSpace(in.CardHolderName),
		}
		if err := v.Struct(form); err != nil {
			return PaymentDetails{}, fmt.Errorf("%w: card payment: %v", ErrValidation, err)
		}
		return PaymentDetails{Method: method, Card: &CardDetails{
			Last4:      form.Number[len(form.Number)-4:],
			CardType:   form.CardType,
			BankName:   form.BankName,
			HolderName: form.HolderName,
		}}, nil
	case PaymentUPI:
		form := upiForm{Handle: strings.TrimSpace(in.UPIID)}
		if err := v.Struct(form); err != nil {
			return PaymentDetails{}, fmt.Errorf("%w: upi payment: %v", ErrValidation, err)
		}
		provider := strings.TrimSpace(in.UPIProvider)
		if provider == "" {
			provider = form.Handle[strings.LastIndex(form.Handle, "@")+1:]
		}
		return PaymentDetails{Method: method, UPI: &UPIDetails{Handle: form.Handle, Provider: provider}}, nil
	case PaymentCash:
		return PaymentDetails{Method: method, Cash: &CashDetails{CollectedBy: strings.TrimSpace(in.CollectedBy)}}, nil
	}
	return PaymentDetails{}, fmt.Errorf("%w: unknown payment method %q", ErrValidation, in.Method)
}
