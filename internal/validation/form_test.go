package validation

import (
	"errors"
	"testing"
	"time"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr error
	}{
		{
			name:  "plain number",
			input: "8000",
			want:  8000,
		},
		{
			name:  "grouped with currency",
			input: "₩12,000",
			want:  12000,
		},
		{
			name:  "decimal is truncated",
			input: "9500.7",
			want:  9500,
		},
		{
			name:    "empty string",
			input:   "  ",
			wantErr: ErrRequired,
		},
		{
			name:    "contains letters",
			input:   "12a00",
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "zero",
			input:   "0",
			wantErr: ErrInvalidPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePrice(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrice(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParsePrice(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDeliveryDate(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	today := time.Date(2024, 5, 1, 23, 30, 0, 0, loc)

	if _, err := ParseDeliveryDate("2024-05-01", today); err != nil {
		t.Fatalf("today must be accepted: %v", err)
	}
	if _, err := ParseDeliveryDate("2024-05-02", today); err != nil {
		t.Fatalf("tomorrow must be accepted: %v", err)
	}
	if _, err := ParseDeliveryDate("2024-04-30", today); !errors.Is(err, ErrDateInPast) {
		t.Fatalf("yesterday: got %v, want ErrDateInPast", err)
	}
	if _, err := ParseDeliveryDate("01.05.2024", today); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("bad layout: got %v, want ErrInvalidDate", err)
	}
}

func TestRequired(t *testing.T) {
	err := Required(map[string]string{
		"address": "",
		"contact": "010-1111-2222",
		"date":    " ",
	})
	if !errors.Is(err, ErrRequired) {
		t.Fatalf("expected ErrRequired, got %v", err)
	}
	if err.Error() != "required field is empty: address, date" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	if err := Required(map[string]string{"name": "bibimbap"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
