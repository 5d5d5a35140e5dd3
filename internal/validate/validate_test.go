package validate

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"901234567", "+998901234567", true},
		{"+998901234567", "+998901234567", true},
		{"998901234567", "+998901234567", true},
		{"90 123 45 67", "+998901234567", true},
		{"90-123-45-67", "+998901234567", true},
		{"(90) 123 45 67", "+998901234567", true},
		{"12345", "", false},
		{"+7 900 123 45 67", "", false},
		{"abcdefghi", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizePhone(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEmail(t *testing.T) {
	valid := []string{"a@b.uz", "user.name@example.com"}
	invalid := []string{"", "a@b", "no-at-sign", "a b@c.uz", "@x.uz"}
	for _, v := range valid {
		if !Email(v) {
			t.Errorf("Email(%q) = false", v)
		}
	}
	for _, v := range invalid {
		if Email(v) {
			t.Errorf("Email(%q) = true", v)
		}
	}
}

func TestAge(t *testing.T) {
	if _, ok := Age("15"); ok {
		t.Error("age 15 accepted")
	}
	if _, ok := Age("81"); ok {
		t.Error("age 81 accepted")
	}
	if _, ok := Age("abc"); ok {
		t.Error("non-numeric age accepted")
	}
	if n, ok := Age(" 25 "); !ok || n != 25 {
		t.Errorf("Age(25) = %d, %v", n, ok)
	}
}

func TestMinLen(t *testing.T) {
	if MinLen("  ab  ", 3) {
		t.Error("padded short string passed MinLen")
	}
	if !MinLen("абв", 3) {
		t.Error("multibyte string failed MinLen")
	}
}

func TestClean(t *testing.T) {
	if Clean("ну сука") {
		t.Error("profanity passed the filter")
	}
	if !Clean("oddiy matn") {
		t.Error("clean text rejected")
	}
}

func TestRegion(t *testing.T) {
	if !Region("Samarqand") {
		t.Error("known region rejected")
	}
	if Region("Mordor") {
		t.Error("unknown region accepted")
	}
}
