// Package captcha generates the arithmetic anti-bot challenge shown
// before registration.
package captcha

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// Challenge is a question shown to the user and its expected answer.
type Challenge struct {
	Question string
	Answer   int
}

// New produces a small addition or subtraction task. Subtraction
// operands are ordered so the answer is never negative.
func New() Challenge {
	a := rand.IntN(9) + 1
	b := rand.IntN(9) + 1
	if rand.IntN(2) == 0 {
		return Challenge{
			Question: fmt.Sprintf("%d + %d", a, b),
			Answer:   a + b,
		}
	}
	if a < b {
		a, b = b, a
	}
	return Challenge{
		Question: fmt.Sprintf("%d - %d", a, b),
		Answer:   a - b,
	}
}

// Check reports whether the user's reply matches the expected answer.
func Check(input string, answer int) bool {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	return err == nil && n == answer
}
