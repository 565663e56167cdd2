package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter    key.Binding
	newSong  key.Binding
	del      key.Binding
	signOut  key.Binding
	retry    key.Binding
	yes      key.Binding
	no       key.Binding
	next     key.Binding
	prev     key.Binding
	addLine  key.Binding
	dropLine key.Binding
	save     key.Binding
	back     key.Binding
	quit     key.Binding
	forceQ   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
		newSong:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new song")),
		del:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		signOut:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sign out")),
		retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		next:     key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		prev:     key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		addLine:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "add line")),
		dropLine: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "remove line")),
		save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		forceQ:   key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k keyMap) libraryHelp() []key.Binding {
	return []key.Binding{k.newSong, k.enter, k.del, k.signOut, k.quit}
}

func (k keyMap) editorHelp(canRemove bool) []key.Binding {
	if canRemove {
		return []key.Binding{k.next, k.addLine, k.dropLine, k.save, k.back}
	}
	return []key.Binding{k.next, k.addLine, k.save, k.back}
}
