package booking

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestBuildPayment(t *testing.T) {
	v := validator.New()
	tests := []struct {
		name    string
		in      PaymentInput
		wantErr bool
		check   func(t *testing.T, d PaymentDetails)
	}{
		{
			name: "cash",
			in:   PaymentInput{Method: "cash", CollectedBy: " driver "},
			check: func(t *testing.T, d PaymentDetails) {
				if d.Method != PaymentCash || d.Cash == nil || d.Cash.CollectedBy != "driver" {
					t.Fatalf("unexpected %+v", d)
				}
			},
		},
		{
			name: "card with separators",
			in:   PaymentInput{Method: "CARD", CardNumber: "4111-1111-1111-9876", CardType: "credit", BankName: "SBI", CardHolderName: "Ravi"},
			check: func(t *testing.T, d PaymentDetails) {
				if d.Card == nil || d.Card.Last4 != "9876" || d.Card.CardType != "CREDIT" || d.Card.BankName != "SBI" {
					t.Fatalf("unexpected %+v", d.Card)
				}
			},
		},
		{
			name: "upi provider derived from handle",
			in:   PaymentInput{Method: "UPI", UPIID: "asha@okaxis"},
			check: func(t *testing.T, d PaymentDetails) {
				if d.UPI == nil || d.UPI.Handle != "asha@okaxis" || d.UPI.Provider != "okaxis" {
					t.Fatalf("unexpected %+v", d.UPI)
				}
			},
		},
		{
			name: "upi explicit provider",
			in:   PaymentInput{Method: "UPI", UPIID: "asha@ybl", UPIProvider: "PhonePe"},
			check: func(t *testing.T, d PaymentDetails) {
				if d.UPI.Provider != "PhonePe" {
					t.Fatalf("provider = %s", d.UPI.Provider)
				}
			},
		},
		{name: "card letters", in: PaymentInput{Method: "CARD", CardNumber: "4111abcd11111234", CardType: "DEBIT", BankName: "SBI", CardHolderName: "R"}, wantErr: true},
		{name: "card type", in: PaymentInput{Method: "CARD", CardNumber: "4111111111111234", CardType: "PREPAID", BankName: "SBI", CardHolderName: "R"}, wantErr: true},
		{name: "card missing bank", in: PaymentInput{Method: "CARD", CardNumber: "4111111111111234", CardType: "DEBIT", CardHolderName: "R"}, wantErr: true},
		{name: "upi empty", in: PaymentInput{Method: "UPI"}, wantErr: true},
		{name: "unknown method", in: PaymentInput{Method: "BITCOIN"}, wantErr: true},
		{name: "empty method", in: PaymentInput{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := BuildPayment(v, tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildPayment: %v", err)
			}
			tt.check(t, d)
		})
	}
}

func TestParsePaymentStatus(t *testing.T) {
	if s, err := ParsePaymentStatus(" success "); err != nil || s != PaymentSuccess {
		t.Fatalf("got %s, %v", s, err)
	}
	if _, err := ParsePaymentStatus("REFUNDED"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
