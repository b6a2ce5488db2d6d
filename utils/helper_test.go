package utils

import "testing"

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ana.Diaz@Example.COM "); got != "ana.diaz@example.com" {
		t.Fatalf("got %q", got)
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"ana@example.com", "a.b+c@sub.example.org"}
	invalid := []string{"", "ana", "ana@", "@example.com", "ana@example"}
	for _, email := range valid {
		if !IsValidEmail(email) {
			t.Fatalf("expected %q to be valid", email)
		}
	}
	for _, email := range invalid {
		if IsValidEmail(email) {
			t.Fatalf("expected %q to be invalid", email)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		phone   string
		country string
		want    string
	}{
		{"6000-0000", "PA", "+50760000000"},
		{"+507 6000 0000", "", "+50760000000"},
		{"(507) 6000-0000x", "", "50760000000"},
		{"", "PA", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.phone, tc.country); got != tc.want {
			t.Fatalf("NormalizePhone(%q, %q) = %q, want %q", tc.phone, tc.country, got, tc.want)
		}
	}
}

func TestNormalizeVat(t *testing.T) {
	if got := NormalizeVat(" 8-nt-123 "); got != "8-NT-123" {
		t.Fatalf("got %q", got)
	}
}

func TestCanonicalPayloadHash_KeyOrderIndependent(t *testing.T) {
	a := map[string]interface{}{"order_id": "ORD-1", "member": map[string]interface{}{"email": "a@b.co", "name": "A"}}
	b := map[string]interface{}{"member": map[string]interface{}{"name": "A", "email": "a@b.co"}, "order_id": "ORD-1"}
	if CanonicalPayloadHash(a) != CanonicalPayloadHash(b) {
		t.Fatal("hash must not depend on key order")
	}
}

func TestCanonicalPayloadHash_ContentSensitive(t *testing.T) {
	a := map[string]interface{}{"order_id": "ORD-1"}
	b := map[string]interface{}{"order_id": "ORD-2"}
	if CanonicalPayloadHash(a) == CanonicalPayloadHash(b) {
		t.Fatal("different payloads must hash differently")
	}
}
