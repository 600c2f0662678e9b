package session

import (
	"strconv"

	tea "charm.land/bubbletea/v2"
)

// cursorKeys are the final bytes of the cursor key sequences.
var cursorKeys = map[rune]byte{
	tea.KeyUp:    'A',
	tea.KeyDown:  'B',
	tea.KeyRight: 'C',
	tea.KeyLeft:  'D',
	tea.KeyHome:  'H',
	tea.KeyEnd:   'F',
}

// tildeKeys are the numbers of the ESC [ n ~ sequences.
var tildeKeys = map[rune]int{
	tea.KeyInsert: 2,
	tea.KeyDelete: 3,
	tea.KeyPgUp:   5,
	tea.KeyPgDown: 6,
	tea.KeyF5:     15,
	tea.KeyF6:     17,
	tea.KeyF7:     18,
	tea.KeyF8:     19,
	tea.KeyF9:     20,
	tea.KeyF10:    21,
	tea.KeyF11:    23,
	tea.KeyF12:    24,
}

// ss3Keys are F1 to F4, sent as ESC O x without modifiers.
var ss3Keys = map[rune]byte{
	tea.KeyF1: 'P',
	tea.KeyF2: 'Q',
	tea.KeyF3: 'R',
	tea.KeyF4: 'S',
}

// keyBytes converts a key press to the bytes a terminal sends for it.
func keyBytes(msg tea.KeyPressMsg) []byte {
	key := msg.Key()
	mod := modParam(key.Mod)

	if key.Mod&tea.ModCtrl != 0 {
		if b, ok := ctrlByte(key.Code); ok {
			return []byte{b}
		}
	}
	if key.Mod&tea.ModAlt != 0 && key.Mod&tea.ModCtrl == 0 {
		switch {
		case key.Code == tea.KeyBackspace:
			return []byte{0x1b, 0x7f}
		case key.Text != "":
			return append([]byte{0x1b}, key.Text...)
		case key.Code >= 32 && key.Code <= 126:
			return []byte{0x1b, byte(key.Code)}
		}
	}

	if final, ok := cursorKeys[key.Code]; ok {
		if mod > 1 {
			return []byte("\x1b[1;" + strconv.Itoa(mod) + string(final))
		}
		return []byte{0x1b, '[', final}
	}
	if n, ok := tildeKeys[key.Code]; ok {
		seq := "\x1b[" + strconv.Itoa(n)
		if mod > 1 {
			seq += ";" + strconv.Itoa(mod)
		}
		return []byte(seq + "~")
	}
	if final, ok := ss3Keys[key.Code]; ok {
		if mod > 1 {
			return []byte("\x1b[1;" + strconv.Itoa(mod) + string(final))
		}
		return []byte{0x1b, 'O', final}
	}

	switch key.Code {
	case tea.KeyEnter:
		return []byte{'\r'}
	case tea.KeyTab:
		if key.Mod&tea.ModShift != 0 {
			return []byte("\x1b[Z")
		}
		return []byte{'\t'}
	case tea.KeyBackspace:
		return []byte{0x7f}
	case tea.KeyEscape:
		return []byte{0x1b}
	case tea.KeySpace:
		return []byte{' '}
	}

	if key.Text != "" {
		return []byte(key.Text)
	}
	if key.Code >= 32 && key.Code <= 126 {
		return []byte{byte(key.Code)}
	}
	return nil
}

// ctrlByte returns the C0 control code for ctrl+code.
func ctrlByte(code rune) (byte, bool) {
	switch {
	case code >= 'a' && code <= 'z':
		return byte(code-'a') + 1, true
	case code >= 'A' && code <= 'Z':
		return byte(code-'A') + 1, true
	}
	switch code {
	case tea.KeySpace, '@':
		return 0x00, true
	case tea.KeyBackspace:
		return 0x08, true
	case tea.KeyEnter:
		return 0x0a, true
	case tea.KeyEscape, '[':
		return 0x1b, true
	case '\\':
		return 0x1c, true
	case ']':
		return 0x1d, true
	case '^':
		return 0x1e, true
	case '_':
		return 0x1f, true
	case '?':
		return 0x7f, true
	}
	return 0, false
}

// modParam is the xterm modifier parameter: 1 plus shift 1, alt 2, ctrl 4.
func modParam(mod tea.KeyMod) int {
	p := 1
	if mod&tea.ModShift != 0 {
		p++
	}
	if mod&tea.ModAlt != 0 {
		p += 2
	}
	if mod&tea.ModCtrl != 0 {
		p += 4
	}
	return p
}
