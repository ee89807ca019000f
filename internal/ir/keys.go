package ir

import (
	"fmt"
	"strings"
)

// Key is a UK-profile user input key code, carried as UserInput data.
type Key int

const (
	KeyUp     Key = 1
	KeyDown   Key = 2
	KeyLeft   Key = 3
	KeyRight  Key = 4
	Key0      Key = 5 // digits run Key0..Key9 = 5..14
	Key9      Key = 14
	KeySelect Key = 15
	KeyCancel Key = 16
	KeyRed    Key = 100
	KeyGreen  Key = 101
	KeyYellow Key = 102
	KeyBlue   Key = 103
	KeyText   Key = 104
)

// Input event registers a Scene can declare.
const (
	RegisterAllKeys  = 3
	RegisterNoDigits = 4
	RegisterColour   = 5
)

var keyNames = map[Key]string{
	KeyUp:     "up",
	KeyDown:   "down",
	KeyLeft:   "left",
	KeyRight:  "right",
	KeySelect: "select",
	KeyCancel: "cancel",
	KeyRed:    "red",
	KeyGreen:  "green",
	KeyYellow: "yellow",
	KeyBlue:   "blue",
	KeyText:   "text",
}

// Digit returns the key code for digit d (0-9).
func Digit(d int) Key {
	return Key0 + Key(d)
}

// IsDigit reports whether k is one of the digit keys.
func (k Key) IsDigit() bool {
	return k >= Key0 && k <= Key9
}

func (k Key) String() string {
	if k.IsDigit() {
		return fmt.Sprintf("%d", int(k-Key0))
	}
	if s, ok := keyNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// Valid reports whether k is a known key code.
func (k Key) Valid() bool {
	if k.IsDigit() {
		return true
	}
	_, ok := keyNames[k]
	return ok
}

// ParseKey accepts a key name ("select", "red") or a single digit.
func ParseKey(s string) (Key, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		return Digit(int(s[0] - '0')), nil
	}
	for k, name := range keyNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown key %q", s)
}

// ValidRegister reports whether r is a known input event register.
func ValidRegister(r int) bool {
	return r == RegisterAllKeys || r == RegisterNoDigits || r == RegisterColour
}

// InRegister reports whether key k is delivered to a Scene using register r.
func InRegister(r int, k Key) bool {
	switch r {
	case RegisterAllKeys:
		return true
	case RegisterNoDigits:
		return !k.IsDigit()
	case RegisterColour:
		switch k {
		case KeyRed, KeyGreen, KeyYellow, KeyBlue, KeyText, KeyCancel:
			return true
		}
		return false
	default:
		return false
	}
}
