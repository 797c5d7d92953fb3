package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly restricts the command to admins whose level is at most MinLevel.
	AdminOnly bool
	MinLevel  int
	Hidden    bool
	Aliases   []string
}
