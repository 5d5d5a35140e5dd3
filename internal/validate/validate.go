// Package validate holds the pure input validators used by flow steps.
package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Uzbek mobile numbers: operator code + 7 digits, with or without
	// the +998 country prefix, separators tolerated.
	uzPhoneRe = regexp.MustCompile(`^(?:\+?998)?([0-9]{9})$`)

	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

	separatorReplacer = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// NormalizePhone validates input as an Uzbek phone number and returns
// it in canonical +998XXXXXXXXX form.
func NormalizePhone(input string) (string, bool) {
	cleaned := separatorReplacer.Replace(strings.TrimSpace(input))
	m := uzPhoneRe.FindStringSubmatch(cleaned)
	if m == nil {
		return "", false
	}
	return "+998" + m[1], true
}

// Email reports whether input has a plausible email shape.
func Email(input string) bool {
	return emailRe.MatchString(strings.TrimSpace(input))
}

// MinLen reports whether input has at least n runes after trimming.
func MinLen(input string, n int) bool {
	return len([]rune(strings.TrimSpace(input))) >= n
}

// Age parses input as an age and checks the accepted working range.
func Age(input string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 16 || n > 80 {
		return 0, false
	}
	return n, true
}

// Password reports whether a password meets the minimum policy.
func Password(input string) bool {
	return len([]rune(input)) >= 8
}

// profanity is deliberately small; the production list is maintained
// by moderators, this covers the flows' rejection path.
var profanity = []string{
	"блять", "сука", "хуй", "пизд", "ебан", "мудак",
	"jalab", "ko'ti", "dalbayob",
}

// Clean reports whether input passes the profanity filter.
func Clean(input string) bool {
	lower := strings.ToLower(input)
	for _, w := range profanity {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

// Regions lists the regions of Uzbekistan offered by region pickers.
var Regions = []string{
	"Toshkent shahri",
	"Toshkent viloyati",
	"Andijon",
	"Buxoro",
	"Farg'ona",
	"Jizzax",
	"Namangan",
	"Navoiy",
	"Qashqadaryo",
	"Qoraqalpog'iston",
	"Samarqand",
	"Sirdaryo",
	"Surxondaryo",
	"Xorazm",
}

// Region reports whether input names a known region exactly.
func Region(input string) bool {
	needle := strings.TrimSpace(input)
	for _, r := range Regions {
		if r == needle {
			return true
		}
	}
	return false
}

// Languages lists the languages offered by the language sub-flow
// pick-list; free-text entries are accepted through the "other" path.
var Languages = []string{
	"O'zbek", "Русский", "English", "Qozoq", "Tojik", "Türkçe",
}
