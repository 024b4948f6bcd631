package woo

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+91 801-350 8258", "918013508258"},
		{"(91) 8272 953014", "918272953014"},
		{"918013508258", "918013508258"},
		{"", ""},
		{"abc", ""},
	}
	for _, c := range cases {
		if got := NormalizePhone(c.in); got != c.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		first, last, want string
	}{
		{"Asha", "Rao", "Asha Rao"},
		{"Asha", "", "Asha"},
		{"", "Rao", "Rao"},
		{"  ", "  ", "Unknown"},
		{"", "", "Unknown"},
	}
	for _, c := range cases {
		if got := displayName(c.first, c.last); got != c.want {
			t.Errorf("displayName(%q, %q) = %q, want %q", c.first, c.last, got, c.want)
		}
	}
}
