package market

import (
	"errors"
	"testing"
	"time"
)

func TestNewBarRejectsInvertedRange(t *testing.T) {
	end := time.Date(2025, 3, 10, 9, 1, 0, 0, time.UTC)
	_, err := NewBar("2327", end, dec("100"), dec("99"), dec("101"), dec("100"), dec("1"))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}

	b, err := NewBar("2327", end, dec("100"), dec("101"), dec("99"), dec("100"), dec("1"))
	if err != nil {
		t.Fatalf("valid bar rejected: %v", err)
	}
	if b.Symbol != "2327" || !b.Time.Equal(end) {
		t.Fatalf("unexpected bar %v", b)
	}
}
