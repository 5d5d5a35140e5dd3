// Package ui declares the surface an application exposes to the
// routers for updates nothing else claimed.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider supplies handlers for updates that matched no
// command, callback, or active conversation.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}
