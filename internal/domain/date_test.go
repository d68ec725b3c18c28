package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-04-15")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	if d.Year != 2026 || d.Month != time.April || d.Day != 15 {
		t.Fatalf("expected 2026-04-15, got %+v", d)
	}
	if d.String() != "2026-04-15" {
		t.Fatalf("expected string form 2026-04-15, got %q", d.String())
	}
}

func TestParseDateBlankAndInvalid(t *testing.T) {
	d, err := ParseDate("")
	if err != nil {
		t.Fatalf("parse blank date: %v", err)
	}
	if !d.IsZero() {
		t.Fatalf("expected zero date for blank input, got %+v", d)
	}

	if _, err := ParseDate("15/04/2026"); err == nil {
		t.Fatal("expected error for non yyyy-mm-dd input")
	}
}

func TestDateAfter(t *testing.T) {
	earlier := NewDate(2026, time.March, 1)
	later := NewDate(2026, time.March, 2)
	if !later.After(earlier) {
		t.Fatal("expected later date to be after earlier")
	}
	if earlier.After(earlier) {
		t.Fatal("expected After to be strict")
	}
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		DeliveryDate Date `json:"deliveryDate"`
	}

	encoded, err := json.Marshal(payload{DeliveryDate: NewDate(2026, time.April, 15)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != `{"deliveryDate":"2026-04-15"}` {
		t.Fatalf("unexpected JSON form: %s", encoded)
	}

	var decoded payload
	if err := json.Unmarshal([]byte(`{"deliveryDate":null}`), &decoded); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !decoded.DeliveryDate.IsZero() {
		t.Fatalf("expected null to clear the date, got %+v", decoded.DeliveryDate)
	}

	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.DeliveryDate.String() != "2026-04-15" {
		t.Fatalf("expected round-tripped date, got %q", decoded.DeliveryDate.String())
	}
}
