package raw

import "testing"

func TestGet(t *testing.T) {
	c := New().Prefix("RAWT_")
	if got := c.Get("MISSING", "def"); got != "def" {
		t.Fatalf("Get missing = %q, want default", got)
	}
	t.Setenv("RAWT_K", "  v  ")
	if got := c.Get("K", "def"); got != "v" {
		t.Fatalf("Get = %q, want trimmed %q", got, "v")
	}
}

func TestGetBool(t *testing.T) {
	c := New().Prefix("RAWT_")
	cases := []struct {
		val  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"1", false, true},
		{"true", false, true},
		{"yes", false, true},
		{"no", true, false},
		{"0", true, false},
	}
	for _, tc := range cases {
		t.Setenv("RAWT_B", tc.val)
		if got := c.GetBool("B", tc.def); got != tc.want {
			t.Fatalf("GetBool(%q, %v) = %v, want %v", tc.val, tc.def, got, tc.want)
		}
	}
}

func TestGetInt(t *testing.T) {
	c := New().Prefix("RAWT_")
	if got := c.GetInt("MISSING", 5); got != 5 {
		t.Fatalf("GetInt missing = %d, want 5", got)
	}
	t.Setenv("RAWT_N", "123")
	if got := c.GetInt("N", 5); got != 123 {
		t.Fatalf("GetInt = %d, want 123", got)
	}
	t.Setenv("RAWT_N", "-1")
	if got := c.GetInt("N", 5); got != 5 {
		t.Fatalf("GetInt negative = %d, want default 5", got)
	}
	t.Setenv("RAWT_N", "12x")
	if got := c.GetInt("N", 5); got != 5 {
		t.Fatalf("GetInt malformed = %d, want default 5", got)
	}
}
