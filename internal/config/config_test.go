package config

import (
	"testing"
	"time"
)

func TestGetBankListEnvParsesPairs(t *testing.T) {
	banks := getBankListEnv("STOREFRONT_TEST_BANK_LIST_UNSET", "VIETCOMBANK:Vietcombank, TECHCOMBANK:Techcombank ,ACB")
	if len(banks) != 3 {
		t.Fatalf("expected 3 banks, got %d: %v", len(banks), banks)
	}
	if banks[0].ID != "VIETCOMBANK" || banks[0].Name != "Vietcombank" {
		t.Fatalf("unexpected first bank: %+v", banks[0])
	}
	if banks[2].ID != "ACB" || banks[2].Name != "ACB" {
		t.Fatalf("entries without a display name must reuse the id, got %+v", banks[2])
	}
}

func TestGetBankListEnvSkipsEmptyEntries(t *testing.T) {
	banks := getBankListEnv("STOREFRONT_TEST_BANK_LIST_UNSET", ",,VIETCOMBANK:Vietcombank,")
	if len(banks) != 1 {
		t.Fatalf("expected 1 bank, got %d", len(banks))
	}
}

func TestGetDurationEnvFallsBack(t *testing.T) {
	if got := getDurationEnv("STOREFRONT_TEST_DURATION_UNSET", 24, time.Hour); got != 24*time.Hour {
		t.Fatalf("expected 24h default, got %s", got)
	}
}
