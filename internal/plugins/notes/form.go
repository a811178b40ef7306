package notes

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/marcus/notedeck/internal/note"
)

const formWidth = 56

// createForm is the modal create-note form. Field values are bound to the
// struct so they survive huh's internal model copies.
type createForm struct {
	form *huh.Form

	title   string
	content string
	tag     string
	confirm bool
}

func newCreateForm(v note.Values) *createForm {
	tag := string(v.Tag)
	if tag == "" {
		tag = string(note.DefaultTag)
	}
	f := &createForm{title: v.Title, content: v.Content, tag: tag, confirm: true}

	options := make([]huh.Option[string], 0, len(note.Tags))
	for _, t := range note.Tags {
		options = append(options, huh.NewOption(string(t), string(t)))
	}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key(note.FieldTitle).
				Title("Title").
				CharLimit(note.TitleMaxLength+10).
				Validate(note.ValidateTitle).
				Value(&f.title),
			huh.NewText().
				Key(note.FieldContent).
				Title("Content").
				Lines(6).
				CharLimit(note.ContentMaxLength+50).
				Validate(note.ValidateContent).
				Value(&f.content),
			huh.NewSelect[string]().
				Key(note.FieldTag).
				Title("Tag").
				Options(options...).
				Validate(note.ValidateTag).
				Value(&f.tag),
			huh.NewConfirm().
				Affirmative("Create note").
				Negative("Cancel").
				Value(&f.confirm),
		),
	).
		WithShowHelp(false).
		WithWidth(formWidth)

	f.form.SubmitCmd = func() tea.Msg { return formSubmittedMsg{} }
	f.form.CancelCmd = func() tea.Msg { return formCancelledMsg{} }
	return f
}

func (f *createForm) Init() tea.Cmd {
	return f.form.Init()
}

func (f *createForm) Update(msg tea.Msg) tea.Cmd {
	m, cmd := f.form.Update(msg)
	if form, ok := m.(*huh.Form); ok {
		f.form = form
	}
	return cmd
}

func (f *createForm) View() string {
	return f.form.View()
}

// Completed reports whether huh finished the form, whichever button was
// chosen.
func (f *createForm) Completed() bool {
	return f.form.State == huh.StateCompleted
}

// Confirmed reports whether "Create note" was chosen.
func (f *createForm) Confirmed() bool {
	return f.confirm
}

// Values returns the current field values.
func (f *createForm) Values() note.Values {
	return note.Values{Title: f.title, Content: f.content, Tag: note.Tag(f.tag)}
}

// Pristine reports whether the user has not typed anything yet.
func (f *createForm) Pristine() bool {
	return f.Values().IsZero()
}
