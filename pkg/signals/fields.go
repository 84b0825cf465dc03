package signals

import "github.com/zoobzio/capitan"

// Field keys carried by formguard events.
var (
	// KeyField is the control key (id, falling back to name).
	KeyField = capitan.NewStringKey("field")

	// KeyForm is the form identifier.
	KeyForm = capitan.NewStringKey("form")

	// KeyRule is the rule that failed, empty when the field is valid.
	KeyRule = capitan.NewStringKey("rule")

	// KeyMessage is the user-facing message.
	KeyMessage = capitan.NewStringKey("message")

	// KeyInvalid is the number of invalid controls in a form.
	KeyInvalid = capitan.NewIntKey("invalid")

	// KeyNotice is the notice identifier.
	KeyNotice = capitan.NewStringKey("notice")

	// KeySeverity is the notice severity.
	KeySeverity = capitan.NewStringKey("severity")

	// KeyOldState is the notice state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the notice state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyTTL is the notice time-to-live.
	KeyTTL = capitan.NewDurationKey("ttl")
)
