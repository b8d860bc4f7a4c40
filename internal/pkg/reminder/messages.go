package reminder

import "fmt"

// messageTemplate is one rung of the escalation ladder. Wording is pluralized
// by item count when rendered.
type messageTemplate struct {
	title    string
	singular string
	plural   string
}

// escalationTable holds the fixed first / second / third-plus reminder
// wording. Indexing goes through messageIndex, never directly.
var escalationTable = [3]messageTemplate{
	{
		title:    "You left something behind",
		singular: "There is still %d item waiting in your cart.",
		plural:   "There are still %d items waiting in your cart.",
	},
	{
		title:    "Your cart misses you",
		singular: "That %d item in your cart is still reserved for you.",
		plural:   "Those %d items in your cart are still reserved for you.",
	},
	{
		title:    "Last call for your cart",
		singular: "Final reminder: %d item in your cart may go out of stock.",
		plural:   "Final reminder: %d items in your cart may go out of stock.",
	},
}

// messageIndex clamps a reminders-sent count to a valid table index.
func messageIndex(remindersSent int) int {
	if remindersSent < 0 {
		return 0
	}
	if remindersSent > 2 {
		return 2
	}
	return remindersSent
}

// reminderMessage renders the escalation rung for a row's current count.
func reminderMessage(remindersSent int, itemCount int64) (title, body string) {
	tmpl := escalationTable[messageIndex(remindersSent)]
	if itemCount == 1 {
		return tmpl.title, fmt.Sprintf(tmpl.singular, itemCount)
	}
	return tmpl.title, fmt.Sprintf(tmpl.plural, itemCount)
}
