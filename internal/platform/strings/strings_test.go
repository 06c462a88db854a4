package strings

import "testing"

func TestPtrDeref(t *testing.T) {
	if Ptr("") != nil {
		t.Fatalf("Ptr(\"\") should be nil")
	}
	p := Ptr("x")
	if p == nil || *p != "x" {
		t.Fatalf("Ptr(\"x\") = %v", p)
	}
	if Deref(nil) != "" {
		t.Fatalf("Deref(nil) should be empty")
	}
	if Deref(p) != "x" {
		t.Fatalf("Deref(p) = %q", Deref(p))
	}
}

func TestSQLNull(t *testing.T) {
	if SQLNull("  ") != nil {
		t.Fatalf("SQLNull(blank) should be nil")
	}
	if SQLNull("a") != "a" {
		t.Fatalf("SQLNull(a) should pass through")
	}
}

func TestSQLNullPtr(t *testing.T) {
	if SQLNullPtr(nil) != nil {
		t.Fatalf("SQLNullPtr(nil) should be nil")
	}
	empty := ""
	if SQLNullPtr(&empty) != "" {
		t.Fatalf("SQLNullPtr(&\"\") should preserve the empty string")
	}
	v := "ua"
	if SQLNullPtr(&v) != "ua" {
		t.Fatalf("SQLNullPtr(&ua) = %v", SQLNullPtr(&v))
	}
}
