package component

import (
	"strconv"
)

// Paths of the journal pages.
const (
	PathHome   = "/"
	PathLogin  = "/login"
	PathLogout = "/logout"
	PathAdd    = "/add"
	PathEdit   = "/edit"
)

// ShareURL is the Twitter endpoint behind the share button.
const ShareURL = "https://twitter.com/share"

// DetailURL returns the path of the detail page for an entry.
func DetailURL(id int64) string {
	return "/detail/" + strconv.FormatInt(id, 10)
}
