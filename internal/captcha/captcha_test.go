package captcha

import (
	"strconv"
	"strings"
	"testing"
)

func TestNewProducesSolvableChallenges(t *testing.T) {
	for i := 0; i < 200; i++ {
		ch := New()
		parts := strings.Fields(ch.Question)
		if len(parts) != 3 {
			t.Fatalf("unexpected question shape: %q", ch.Question)
		}
		a, _ := strconv.Atoi(parts[0])
		b, _ := strconv.Atoi(parts[2])
		var want int
		switch parts[1] {
		case "+":
			want = a + b
		case "-":
			want = a - b
		default:
			t.Fatalf("unexpected operator in %q", ch.Question)
		}
		if want != ch.Answer {
			t.Fatalf("question %q has answer %d, want %d", ch.Question, ch.Answer, want)
		}
		if ch.Answer < 0 {
			t.Fatalf("negative answer for %q", ch.Question)
		}
	}
}

func TestCheck(t *testing.T) {
	if !Check(" 7 ", 7) {
		t.Error("padded correct answer rejected")
	}
	if Check("8", 7) {
		t.Error("wrong answer accepted")
	}
	if Check("seven", 7) {
		t.Error("non-numeric answer accepted")
	}
}
