// Package format contains text formatting helpers for outgoing messages.
package format

import (
	"fmt"
	"regexp"
)

const (
	// MarkdownV1 is Telegram's legacy Markdown parse mode.
	MarkdownV1 = 1
	// MarkdownV2 is Telegram's MarkdownV2 parse mode.
	MarkdownV2 = 2
)

var (
	mdV1Specials = regexp.MustCompile("([_*\\[`])")
	mdV2Specials = regexp.MustCompile(`([_*\[\]()~` + "`" + `>#+\-=|{}.!])`)
)

// EscapeMarkdown backslash-escapes user text so it survives the given
// Telegram markdown parse mode.
func EscapeMarkdown(text string, version int) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Specials.ReplaceAllString(text, `\$1`), nil
	case MarkdownV2:
		return mdV2Specials.ReplaceAllString(text, `\$1`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}
