package canonical

import "testing"

func TestPostgresToCanonical(t *testing.T) {
	cases := []struct {
		native string
		want   Type
	}{
		{"bigint", Int8},
		{"character varying", Text},
		{"numeric", Decimal},
		{"uuid", UUID},
		{"jsonb", JSON},
		{"timestamp with time zone", DateTimeTZ},
		{"totally_unknown_type", Unknown},
	}
	for _, c := range cases {
		got, _ := PostgresToCanonical(c.native, 0, 0, 0)
		if got.Type != c.want {
			t.Errorf("PostgresToCanonical(%q) = %v, want %v", c.native, got.Type, c.want)
		}
	}
}

func TestMSSQLToCanonical(t *testing.T) {
	cases := []struct {
		native string
		want   Type
	}{
		{"uniqueidentifier", UUID},
		{"nvarchar", NText},
		{"datetimeoffset", DateTimeTZ},
		{"tinyint", Int1},
	}
	for _, c := range cases {
		got, _ := MSSQLToCanonical(c.native, 0, 0, 0)
		if got.Type != c.want {
			t.Errorf("MSSQLToCanonical(%q) = %v, want %v", c.native, got.Type, c.want)
		}
	}
}

func TestMySQLFromCanonicalRoundTrip(t *testing.T) {
	for _, ty := range []Type{Int8, Int4, Decimal, Text, DateTime, Bool, UUID, JSON} {
		out, err := MySQLFromCanonical(Parsed{Type: ty, Precision: 10, Scale: 2, Length: 100})
		if err != nil {
			t.Fatalf("MySQLFromCanonical(%v) error: %v", ty, err)
		}
		if out == "" {
			t.Errorf("MySQLFromCanonical(%v) returned empty type", ty)
		}
	}
}

func TestLookupMissingPairIsExplicit(t *testing.T) {
	if _, ok := Lookup(Type("NOT_A_TYPE"), Text); ok {
		t.Fatalf("expected no transform registered for a bogus type")
	}
}

func TestUUIDTransform(t *testing.T) {
	fn, ok := Lookup(UUID, UUID)
	if !ok {
		t.Fatal("expected UUID->UUID transform to be registered")
	}
	out, err := fn("550e8400-e29b-41d4-a716-446655440000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "550e8400-e29b-41d4-a716-446655440000" {
		t.Errorf("got %v", out)
	}
	if _, err := fn("not-a-uuid"); err == nil {
		t.Error("expected error for invalid uuid")
	}
}
