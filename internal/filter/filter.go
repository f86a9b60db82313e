// Package filter implements the chat search filters: case-insensitive
// substring matches on usernames and message text.
package filter

import (
	"strings"

	"github.com/steel-chat/steel/pkg/chat"
)

// Condition is a single filter over messages.
type Condition struct {
	input          string
	inputLowercase string
}

// NewCondition creates a filter with an initial query.
func NewCondition(input string) Condition {
	c := Condition{}
	c.Set(input)
	return c
}

// Set replaces the query text.
func (c *Condition) Set(input string) {
	c.input = input
	c.inputLowercase = strings.ToLower(input)
}

// Input returns the raw query text.
func (c *Condition) Input() string {
	return c.input
}

// Reset clears the query; an empty condition matches everything.
func (c *Condition) Reset() {
	c.input = ""
	c.inputLowercase = ""
}

func (c *Condition) matches(value string) bool {
	if c.input == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), c.inputLowercase)
}

// Collection combines the username and text filters. An inactive collection
// matches everything.
type Collection struct {
	Username Condition
	Text     Condition
	Active   bool
}

// Matches reports whether the message passes all active filters.
func (f *Collection) Matches(m chat.Message) bool {
	if !f.Active {
		return true
	}
	return f.Username.matches(m.Username) && f.Text.matches(m.Text)
}

// Reset clears both filters.
func (f *Collection) Reset() {
	f.Username.Reset()
	f.Text.Reset()
}
