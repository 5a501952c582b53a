package component

import (
	"strconv"
	"time"
)

// DateFormat is how entry creation dates are displayed.
const DateFormat = "Jan. 02, 2006"

// Entry is an entry prepared for display. HTML is the rendered and sanitized
// body; Source is the Markdown it was rendered from, only shown in the edit
// form.
type Entry struct {
	ID      int64
	Title   string
	HTML    string
	Source  string
	Created time.Time
}

// CreatedDate returns the creation date in [DateFormat].
func (e Entry) CreatedDate() string {
	return e.Created.Format(DateFormat)
}

// IDString returns the ID in decimal, as used in element IDs and form values.
func (e Entry) IDString() string {
	return strconv.FormatInt(e.ID, 10)
}
