package calendar

import "github.com/pbaille/essenskalender/internal/domain"

// Form is the entry form's state: FormClosed, FormCreating or FormEditing.
// The unexported method keeps the set closed, so a type switch over the
// three cases is exhaustive.
type Form interface {
	isForm()
}

// FormClosed means no form is shown.
type FormClosed struct{}

// FormCreating is an empty form for a new entry.
type FormCreating struct{}

// FormEditing is a form prefilled with an existing entry.
type FormEditing struct {
	Entry domain.Entry
}

func (FormClosed) isForm()   {}
func (FormCreating) isForm() {}
func (FormEditing) isForm()  {}

// IsOpen reports whether f shows a form.
func IsOpen(f Form) bool {
	_, closed := f.(FormClosed)
	return !closed
}

// Draft returns the entry a form starts from: the edited entry, or a blank
// one on date for a new entry.
func Draft(f Form, date string) domain.Entry {
	switch f := f.(type) {
	case FormEditing:
		return f.Entry
	case FormCreating:
		return domain.Entry{Date: date, Mood: 3}
	case FormClosed:
		return domain.Entry{}
	}
	return domain.Entry{}
}
