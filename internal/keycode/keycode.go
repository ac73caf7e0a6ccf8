// Package keycode is the table of device key codes offered by the keyevent
// control and the key command.
package keycode

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

const prefix = "KEYCODE_"

// Key pairs a short display name with the code sent in a keyevent action.
type Key struct {
	Name string
	Code string
}

var named = []string{
	"ENTER", "DEL", "FORWARD_DEL", "APOSTROPHE", "APP_SWITCH", "ASSIST", "AT",
	"BACK", "BACKSLASH", "BREAK", "BRIGHTNESS_DOWN", "BRIGHTNESS_UP",
	"CAPS_LOCK", "CLEAR", "COMMA", "COPY", "CTRL_LEFT", "CTRL_RIGHT", "CUT",
	"EMOJI_PICKER", "EQUALS", "ESCAPE", "FOCUS", "FORWARD", "FUNCTION",
	"GRAVE", "GUIDE", "HELP", "HENKAN", "HOME", "INFO", "INSERT", "KANA",
	"KATAKANA_HIRAGANA", "LANGUAGE_SWITCH", "LAST_CHANNEL", "LEFT_BRACKET",
	"MENU", "MINUS", "MOVE_END", "MOVE_HOME", "MUHENKAN", "MUTE",
	"NAVIGATE_IN", "NAVIGATE_NEXT", "NAVIGATE_OUT", "NAVIGATE_PREVIOUS",
	"NOTIFICATION", "NUM", "NUM_LOCK", "PAGE_DOWN", "PAGE_UP", "PASTE",
	"PERIOD", "PICTSYMBOLS", "PLUS", "POUND", "POWER", "RECENT_APPS",
	"REFRESH", "RIGHT_BRACKET", "RO", "SCREENSHOT", "SCROLL_LOCK", "SEARCH",
	"SEMICOLON", "SETTINGS", "SHIFT_LEFT", "SHIFT_RIGHT", "SLASH", "SLEEP",
	"SPACE", "STAR", "SWITCH_CHARSET", "SYM", "SYSRQ", "TAB", "THUMBS_DOWN",
	"THUMBS_UP", "VOICE_ASSIST", "VOLUME_DOWN", "VOLUME_MUTE", "VOLUME_UP",
	"WAKEUP", "WINDOW", "YEN", "ZENKAKU_HANKAKU", "ZOOM_IN", "ZOOM_OUT",
}

var numpadExtra = []string{
	"ADD", "COMMA", "DIVIDE", "DOT", "ENTER", "EQUALS", "LEFT_PAREN",
	"MULTIPLY", "RIGHT_PAREN", "SUBTRACT",
}

var dpad = []string{
	"LEFT", "UP", "RIGHT", "DOWN", "CENTER", "DOWN_LEFT", "DOWN_RIGHT",
	"UP_LEFT", "UP_RIGHT",
}

var (
	table  = build()
	byName = index(table)
)

// build lays the table out in display order: letters, digits, function
// keys, numpad, dpad, then the named keys. Numpad names carry a NUMPAD_
// prefix so they never shadow the plain digits and symbols.
func build() []Key {
	var keys []Key
	for c := 'A'; c <= 'Z'; c++ {
		keys = append(keys, Key{Name: string(c), Code: prefix + string(c)})
	}
	for d := 0; d <= 9; d++ {
		n := strconv.Itoa(d)
		keys = append(keys, Key{Name: n, Code: prefix + n})
	}
	for f := 1; f <= 12; f++ {
		n := "F" + strconv.Itoa(f)
		keys = append(keys, Key{Name: n, Code: prefix + n})
	}
	for d := 0; d <= 9; d++ {
		n := "NUMPAD_" + strconv.Itoa(d)
		keys = append(keys, Key{Name: n, Code: prefix + n})
	}
	for _, k := range numpadExtra {
		n := "NUMPAD_" + k
		keys = append(keys, Key{Name: n, Code: prefix + n})
	}
	for _, k := range dpad {
		keys = append(keys, Key{Name: k, Code: prefix + "DPAD_" + k})
	}
	for _, k := range named {
		keys = append(keys, Key{Name: k, Code: prefix + k})
	}
	return keys
}

func index(keys []Key) map[string]Key {
	m := make(map[string]Key, len(keys)*2)
	for _, k := range keys {
		m[k.Name] = k
		m[k.Code] = k
	}
	return m
}

// All returns the table in display order. The slice is a copy.
func All() []Key {
	out := make([]Key, len(table))
	copy(out, table)
	return out
}

// UnknownError is returned by Lookup for names that are not in the table.
type UnknownError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("unknown key %q", e.Name)
	}
	return fmt.Sprintf("unknown key %q (did you mean %s?)", e.Name, strings.Join(e.Suggestions, ", "))
}

// Lookup accepts a display name or a full KEYCODE_ code, in any case.
func Lookup(name string) (Key, error) {
	q := strings.ToUpper(strings.TrimSpace(name))
	q = strings.ReplaceAll(q, "-", "_")
	if k, ok := byName[q]; ok {
		return k, nil
	}
	return Key{}, &UnknownError{Name: name, Suggestions: Suggest(name, 3)}
}

// Suggest returns up to n display names closest to name by edit distance.
func Suggest(name string, n int) []string {
	q := strings.ToUpper(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), prefix))
	if q == "" || n <= 0 {
		return nil
	}
	type scored struct {
		name string
		dist int
	}
	cands := make([]scored, 0, len(table))
	for _, k := range table {
		cands = append(cands, scored{k.Name, levenshtein.ComputeDistance(q, k.Name)})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })

	// far-off matches are noise
	limit := max(2, len(q)/2)
	var out []string
	for _, c := range cands {
		if len(out) == n || c.dist > limit {
			break
		}
		out = append(out, c.name)
	}
	return out
}

// Filter returns the keys whose name matches query as an in-order
// subsequence, best matches first. An empty query returns the whole table.
func Filter(query string) []Key {
	if strings.TrimSpace(query) == "" {
		return All()
	}
	type scored struct {
		key   Key
		score int
		pos   int
	}
	var hits []scored
	for i, k := range table {
		if ok, s := MatchScore(k.Name, query); ok {
			hits = append(hits, scored{k, s, i})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].pos < hits[j].pos
	})
	out := make([]Key, len(hits))
	for i, h := range hits {
		out[i] = h.key
	}
	return out
}

// MatchScore reports whether every byte of query appears in label in order
// (case-insensitive) and scores the match: a match at the start, adjacent
// matched bytes and an exact match all rank higher.
func MatchScore(label, query string) (bool, int) {
	if query == "" {
		return true, 0
	}
	labelLower := strings.ToLower(label)
	queryLower := strings.ToLower(query)

	matchIdx := make([]int, 0, len(queryLower))
	searchFrom := 0
	for i := 0; i < len(queryLower); i++ {
		ch := queryLower[i]
		found := false
		for j := searchFrom; j < len(labelLower); j++ {
			if labelLower[j] == ch {
				matchIdx = append(matchIdx, j)
				searchFrom = j + 1
				found = true
				break
			}
		}
		if !found {
			return false, 0
		}
	}

	score := len(queryLower)
	if len(matchIdx) > 0 && matchIdx[0] == 0 {
		score += 10
	}
	for i := 1; i < len(matchIdx); i++ {
		if matchIdx[i] == matchIdx[i-1]+1 {
			score += 3
		}
	}
	if strings.EqualFold(strings.TrimSpace(label), strings.TrimSpace(query)) {
		score += 20
	}
	return true, score
}
