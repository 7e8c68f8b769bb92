package fetch

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"volScope/internal/model"
)

func TestParsePoolID(t *testing.T) {
	address, id, err := ParsePoolID(" 0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "0x8ad599c3a0ff1de082011efddc58f1908eb6e6d8" {
		t.Fatalf("id mismatch: %s", id)
	}
	if address != common.HexToAddress("0x8ad599c3a0ff1de082011efddc58f1908eb6e6d8") {
		t.Fatalf("address mismatch: %s", address.Hex())
	}
}

func TestParsePoolIDInvalid(t *testing.T) {
	for _, input := range []string{"", "0x1234", "not-an-address", "0xzz599c3a0ff1de082011efddc58f1908eb6e6d8"} {
		_, _, err := ParsePoolID(input)
		if err == nil {
			t.Fatalf("expected error for %q", input)
		}
		if !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("expected not found for %q, got %v", input, err)
		}
	}
}
