package uitest

import (
	"fmt"

	"github.com/stolasapp/journal/internal/app/component"
)

// CSS selectors built from component constants.
// These ensure test selectors stay in sync with the component DOM structure.

// Element selectors.
var (
	// SelectorEntries selects the entry list by ID.
	SelectorEntries = "#" + component.IDEntries

	// SelectorEntryItem selects the articles of the entry list.
	SelectorEntryItem = SelectorEntries + " > article"

	// SelectorSiteTitle selects the site title link by class.
	SelectorSiteTitle = "." + component.ClassSiteTitle

	// SelectorFlashes selects the flash message list by class.
	SelectorFlashes = "." + component.ClassFlashes

	// SelectorDetail selects the entry on the detail page.
	SelectorDetail = "." + component.ClassDetailForm + " > article"

	// SelectorCreateForm selects the create form on the home page.
	SelectorCreateForm = "form." + component.ClassCreateForm

	// SelectorEditForm selects the edit form on the detail page.
	SelectorEditForm = "form." + component.ClassEditForm

	// SelectorLogout selects the logout button in the site header.
	SelectorLogout = "form[action='" + component.PathLogout + "'] button"
)

// Button selectors.
var (
	SelectorCreateButton = "#" + component.IDCreateButton
	SelectorAddButton    = "#" + component.IDAddButton
	SelectorEditButton   = "#" + component.IDEditButton
	SelectorSubmitButton = "#" + component.IDSubmitButton
	SelectorCancelButton = "#" + component.IDCancelButton
)

// FieldIn returns a selector for a named form field inside the form matched
// by form.
func FieldIn(form, name string) string {
	return fmt.Sprintf("%s [name='%s']", form, name)
}

// EntryItemByID returns a selector for the list article of an entry.
func EntryItemByID(id string) string {
	return fmt.Sprintf("%s[%s='%s']", SelectorEntryItem, component.DataAttrEntryID, id)
}
