package engine

import (
	"errors"
	"testing"
)

func TestNewLimitOrderValidation(t *testing.T) {
	tests := []struct {
		name    string
		price   int64
		size    int64
		wantErr bool
	}{
		{name: "valid", price: 100, size: 10, wantErr: false},
		{name: "zero price", price: 0, size: 10, wantErr: true},
		{name: "negative price", price: -5, size: 10, wantErr: true},
		{name: "zero size", price: 100, size: 0, wantErr: true},
		{name: "negative size", price: 100, size: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewLimitOrder(1, Buy, tt.price, tt.size, 1, "0xabc")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewLimitOrder(%d, %d) = nil error, want ErrInvalidOrder", tt.price, tt.size)
				}
				if !errors.Is(err, ErrInvalidOrder) {
					t.Errorf("error = %v, want ErrInvalidOrder", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLimitOrder(%d, %d) = %v, want nil", tt.price, tt.size, err)
			}
			if o.Remaining != o.Size {
				t.Errorf("Remaining = %d, want %d", o.Remaining, o.Size)
			}
			if o.Type != Limit {
				t.Errorf("Type = %v, want Limit", o.Type)
			}
		})
	}
}

func TestNewMarketOrderValidation(t *testing.T) {
	if _, err := NewMarketOrder(1, Sell, 0, 1, "0xabc"); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("zero size: error = %v, want ErrInvalidOrder", err)
	}
	o, err := NewMarketOrder(2, Sell, 7, 1, "0xabc")
	if err != nil {
		t.Fatalf("valid market order: %v", err)
	}
	if o.Price != 0 {
		t.Errorf("market order price = %d, want 0", o.Price)
	}
	if o.Remaining != 7 {
		t.Errorf("Remaining = %d, want 7", o.Remaining)
	}
}

func TestNewCancelOrder(t *testing.T) {
	o := NewCancelOrder(42)
	if o.Type != Cancel || o.ID != 42 {
		t.Errorf("got %v, want cancel of id 42", o)
	}
}

func TestSetSignatureCarriedToTrade(t *testing.T) {
	buySig := Signature{Type: "EIP-712", V: 27, R: "0x01", S: "0x02"}
	sellSig := Signature{Type: "EIP-712", V: 28, R: "0x03", S: "0x04"}

	maker, _ := NewLimitOrder(1, Buy, 100, 5, 1, "0xbuyer")
	maker.SetSignature(buySig)
	taker, _ := NewLimitOrder(2, Sell, 100, 5, 2, "0xseller")
	taker.SetSignature(sellSig)

	tr := newTrade(taker, maker, 5)
	if tr.BuyerSig != buySig {
		t.Errorf("BuyerSig = %+v, want %+v", tr.BuyerSig, buySig)
	}
	if tr.SellerSig != sellSig {
		t.Errorf("SellerSig = %+v, want %+v", tr.SellerSig, sellSig)
	}
	if tr.BuyerID != "0xbuyer" || tr.SellerID != "0xseller" {
		t.Errorf("attribution = (%s, %s), want (0xbuyer, 0xseller)", tr.BuyerID, tr.SellerID)
	}
}
