package ui

import tea "github.com/charmbracelet/bubbletea"

type KeyMap struct {
	NextPage       tea.Key
	PrevPage       tea.Key
	FirstPage      tea.Key
	LastPage       tea.Key
	PageSize       tea.Key
	Top            tea.Key
	Bottom         tea.Key
	Sort           tea.Key
	ClearSort      tea.Key
	Filter         tea.Key
	ClearFilter    tea.Key
	Search         tea.Key
	SearchNext     tea.Key
	SearchPrev     tea.Key
	Select         tea.Key
	SelectAll      tea.Key
	ClearSelection tea.Key
	Export         tea.Key
	Dashboard      tea.Key
	Stats          tea.Key
	Inspector      tea.Key
	ViewRaw        tea.Key
	CopyRow        tea.Key
	AppLogs        tea.Key
	Redetect       tea.Key
	Pause          tea.Key
	NextTab        tea.Key
	PrevTab        tea.Key
	IncColWidth    tea.Key
	DecColWidth    tea.Key
	Help           tea.Key
	Quit           tea.Key
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextPage:       tea.Key{Type: tea.KeyPgDown},
		PrevPage:       tea.Key{Type: tea.KeyPgUp},
		FirstPage:      tea.Key{Type: tea.KeyHome},
		LastPage:       tea.Key{Type: tea.KeyEnd},
		PageSize:       tea.Key{Type: tea.KeyRunes, Runes: []rune{'z'}},
		Top:            tea.Key{Type: tea.KeyRunes, Runes: []rune{'g'}},
		Bottom:         tea.Key{Type: tea.KeyRunes, Runes: []rune{'G'}},
		Sort:           tea.Key{Type: tea.KeyRunes, Runes: []rune{'s'}},
		ClearSort:      tea.Key{Type: tea.KeyRunes, Runes: []rune{'S'}},
		Filter:         tea.Key{Type: tea.KeyRunes, Runes: []rune{'f'}},
		ClearFilter:    tea.Key{Type: tea.KeyRunes, Runes: []rune{'F'}},
		Search:         tea.Key{Type: tea.KeyRunes, Runes: []rune{'/'}},
		SearchNext:     tea.Key{Type: tea.KeyRunes, Runes: []rune{'n'}},
		SearchPrev:     tea.Key{Type: tea.KeyRunes, Runes: []rune{'N'}},
		Select:         tea.Key{Type: tea.KeyRunes, Runes: []rune{' '}},
		SelectAll:      tea.Key{Type: tea.KeyRunes, Runes: []rune{'a'}},
		ClearSelection: tea.Key{Type: tea.KeyRunes, Runes: []rune{'A'}},
		Export:         tea.Key{Type: tea.KeyRunes, Runes: []rune{'e'}},
		Dashboard:      tea.Key{Type: tea.KeyRunes, Runes: []rune{'d'}},
		Stats:          tea.Key{Type: tea.KeyRunes, Runes: []rune{'x'}},
		Inspector:      tea.Key{Type: tea.KeyEnter},
		ViewRaw:        tea.Key{Type: tea.KeyRunes, Runes: []rune{'v'}},
		CopyRow:        tea.Key{Type: tea.KeyRunes, Runes: []rune{'c'}},
		AppLogs:        tea.Key{Type: tea.KeyRunes, Runes: []rune{'L'}},
		Redetect:       tea.Key{Type: tea.KeyRunes, Runes: []rune{'r'}},
		Pause:          tea.Key{Type: tea.KeyRunes, Runes: []rune{'p'}},
		NextTab:        tea.Key{Type: tea.KeyTab},
		PrevTab:        tea.Key{Type: tea.KeyShiftTab},
		IncColWidth:    tea.Key{Type: tea.KeyRunes, Runes: []rune{'>'}},
		DecColWidth:    tea.Key{Type: tea.KeyRunes, Runes: []rune{'<'}},
		Help:           tea.Key{Type: tea.KeyRunes, Runes: []rune{'?'}},
		Quit:           tea.Key{Type: tea.KeyRunes, Runes: []rune{'q'}},
	}
}

func keyMatches(msg tea.KeyMsg, k tea.Key) bool {
	if k.Type != tea.KeyRunes {
		return msg.Type == k.Type
	}
	if len(k.Runes) > 0 {
		return msg.String() == string(k.Runes)
	}
	return false
}
