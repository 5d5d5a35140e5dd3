// Package commands defines the command descriptor shared by the
// registry and the routers.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command pairs a handler with the metadata the routers need: menu
// description, admin gating, visibility, and alternate spellings.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}
