// Package signals declares the capitan signals formguard emits while it
// validates fields and runs transient feedback, so hosts can hook audit or
// debug output without threading callbacks through every component.
package signals

import "github.com/zoobzio/capitan"

// Validation signals.
var (
	// FieldValidated is emitted after a control is evaluated and annotated.
	FieldValidated = capitan.NewSignal(
		"formguard.field.validated",
		"Field evaluated against its rules",
	)

	// SubmitVetoed is emitted when form validation cancels a submission.
	SubmitVetoed = capitan.NewSignal(
		"formguard.form.submit.vetoed",
		"Form submission cancelled by validation",
	)

	// SubmitAllowed is emitted when a form passes validation.
	SubmitAllowed = capitan.NewSignal(
		"formguard.form.submit.allowed",
		"Form submission allowed",
	)
)

// Notice lifecycle signals.
var (
	// NoticeShown is emitted when a notice enters the overlay region.
	NoticeShown = capitan.NewSignal(
		"formguard.notice.shown",
		"Transient notice shown",
	)

	// NoticeStateChanged is emitted on every notice state transition.
	NoticeStateChanged = capitan.NewSignal(
		"formguard.notice.state.changed",
		"Transient notice state transition",
	)
)
