package component

// Element IDs targeted by journal.js and the tests.
const (
	IDAddButton    = "addBtn"
	IDCreateButton = "createBtn"
	IDEditButton   = "editBtn"
	IDSubmitButton = "submitBtn"
	IDCancelButton = "cancelBtn"
	IDEntries      = "entries"
	IDTitleInput   = "title"
	IDTextInput    = "text"
)

// CSS class names.
const (
	ClassSiteHeader  = "site-header"
	ClassSiteTitle   = "site-title"
	ClassFlashes     = "flashes"
	ClassCreateForm  = "createForm"
	ClassDetailForm  = "detailForm"
	ClassEditForm    = "editForm"
	ClassHeadingLink = "headingLink"
	ClassDivider     = "titleDivider"
	ClassEntryText   = "entry-text"
	ClassError       = "error"
	ClassEmpty       = "empty"
)

// Form field and metadata names shared with the handlers.
const (
	FieldCSRF     = "_csrf"
	FieldID       = "id"
	FieldTitle    = "title"
	FieldText     = "text"
	FieldUsername = "username"
	FieldPassword = "password"

	MetaCSRF = "csrf-token"
)

// Data attribute names with prefix (for use in CSS selectors and tests).
const (
	DataAttrEntryID = "data-entry-id"
)
