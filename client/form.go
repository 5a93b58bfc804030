package main

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	validation "github.com/go-ozzo/ozzo-validation"
)

// field is one form row: free text, or a fixed set of options cycled with
// left/right.
type field struct {
	key     string
	label   string
	input   textinput.Model
	options []string
	choice  int
}

func textField(key, label, placeholder string) *field {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 40
	return &field{key: key, label: label, input: ti}
}

func secretField(key, label string) *field {
	f := textField(key, label, "")
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

func selectField(key, label string, options []string) *field {
	return &field{key: key, label: label, options: options}
}

func (f *field) value() string {
	if f.options != nil {
		if len(f.options) == 0 {
			return ""
		}
		return f.options[f.choice]
	}
	return f.input.Value()
}

func (f *field) set(v string) {
	if f.options == nil {
		f.input.SetValue(v)
		return
	}
	for i, o := range f.options {
		if o == v {
			f.choice = i
			return
		}
	}
	// keep values the server has that the list does not offer
	if v != "" {
		f.options = append(slices.Clip(f.options), v)
		f.choice = len(f.options) - 1
	}
}

type form struct {
	fields []*field
	focus  int
	errs   map[string]string
	busy   bool
}

func newForm(fields ...*field) *form {
	f := &form{fields: fields}
	f.focusAt(0)
	return f
}

func (f *form) focusAt(i int) {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focus].input.Blur()
	f.focus = (i + len(f.fields)) % len(f.fields)
	if f.fields[f.focus].options == nil {
		f.fields[f.focus].input.Focus()
	}
}

func (f *form) field(key string) *field {
	for _, fl := range f.fields {
		if fl.key == key {
			return fl
		}
	}
	return nil
}

func (f *form) value(key string) string {
	if fl := f.field(key); fl != nil {
		return fl.value()
	}
	return ""
}

func (f *form) set(key, v string) {
	if fl := f.field(key); fl != nil {
		fl.set(v)
	}
}

// setErrors shows validation errors next to their fields. It reports
// whether there were any.
func (f *form) setErrors(errs validation.Errors) bool {
	f.errs = nil
	if len(errs) == 0 {
		return false
	}
	f.errs = make(map[string]string, len(errs))
	for k, err := range errs {
		f.errs[k] = err.Error()
	}
	return true
}

// update handles one key. submit is true when enter is pressed on the last
// field.
func (f *form) update(msg tea.KeyMsg) (submit bool, cmd tea.Cmd) {
	if f.busy {
		return false, nil
	}
	cur := f.fields[f.focus]
	switch msg.String() {
	case "tab", "down":
		f.focusAt(f.focus + 1)
		return false, nil
	case "shift+tab", "up":
		f.focusAt(f.focus - 1)
		return false, nil
	case "enter":
		if f.focus == len(f.fields)-1 {
			return true, nil
		}
		f.focusAt(f.focus + 1)
		return false, nil
	case "left", "right":
		if cur.options != nil && len(cur.options) > 0 {
			step := 1
			if msg.String() == "left" {
				step = -1
			}
			cur.choice = (cur.choice + step + len(cur.options)) % len(cur.options)
			return false, nil
		}
	}
	if cur.options != nil {
		return false, nil
	}
	cur.input, cmd = cur.input.Update(msg)
	delete(f.errs, cur.key)
	return false, cmd
}

func (f *form) view() string {
	var b strings.Builder
	for i, fl := range f.fields {
		label := mutedStyle.Render(fl.label)
		if i == f.focus {
			label = selectedStyle.Render("› " + fl.label)
		}
		b.WriteString(label + "\n")
		if fl.options != nil {
			v := fl.value()
			if v == "" {
				v = mutedStyle.Render("select…")
			}
			b.WriteString("  ‹ " + v + " ›\n")
		} else {
			b.WriteString("  " + fl.input.View() + "\n")
		}
		if msg, ok := f.errs[fl.key]; ok {
			b.WriteString("  " + errorStyle.Render(msg) + "\n")
		}
	}
	if msg, ok := f.errs["form"]; ok {
		b.WriteString(errorStyle.Render(msg) + "\n")
	}
	return b.String()
}
