package keycode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableIsUnique(t *testing.T) {
	names := map[string]bool{}
	codes := map[string]bool{}
	for _, k := range All() {
		require.False(t, names[k.Name], "duplicate name %s", k.Name)
		require.False(t, codes[k.Code], "duplicate code %s", k.Code)
		names[k.Name] = true
		codes[k.Code] = true
	}
	require.Equal(t, "A", All()[0].Name)
}

func TestLookup(t *testing.T) {
	cases := map[string]string{
		"home":             "KEYCODE_HOME",
		"KEYCODE_BACK":     "KEYCODE_BACK",
		"volume-up":        "KEYCODE_VOLUME_UP",
		" f12 ":            "KEYCODE_F12",
		"7":                "KEYCODE_7",
		"numpad_7":         "KEYCODE_NUMPAD_7",
		"LEFT":             "KEYCODE_DPAD_LEFT",
		"KEYCODE_DPAD_UP":  "KEYCODE_DPAD_UP",
		"enter":            "KEYCODE_ENTER",
		"NUMPAD_ENTER":     "KEYCODE_NUMPAD_ENTER",
		"zenkaku_hankaku":  "KEYCODE_ZENKAKU_HANKAKU",
	}
	for in, want := range cases {
		k, err := Lookup(in)
		require.NoError(t, err, in)
		require.Equal(t, want, k.Code, in)
	}
}

func TestLookupSuggests(t *testing.T) {
	_, err := Lookup("hoem")
	var ue *UnknownError
	require.True(t, errors.As(err, &ue))
	require.Contains(t, ue.Suggestions, "HOME")
	require.Contains(t, err.Error(), "did you mean")

	_, err = Lookup("qqqqqqqqqqqqqqqqqqq")
	require.True(t, errors.As(err, &ue))
	require.Empty(t, ue.Suggestions)
}

func TestFilterRanksPrefixMatches(t *testing.T) {
	got := Filter("vol")
	require.NotEmpty(t, got)
	require.Equal(t, "VOLUME_DOWN", got[0].Name)
	for _, k := range got {
		ok, _ := MatchScore(k.Name, "vol")
		require.True(t, ok)
	}

	require.Len(t, Filter(""), len(All()))
	require.Empty(t, Filter("zzzzq"))

	exact := Filter("home")
	require.Equal(t, "HOME", exact[0].Name)
}

func TestMatchScore(t *testing.T) {
	ok, prefix := MatchScore("POWER", "pow")
	require.True(t, ok)
	ok, inner := MatchScore("SCREENSHOT", "sho")
	require.True(t, ok)
	require.Greater(t, prefix, inner)

	ok, _ = MatchScore("POWER", "rp")
	require.False(t, ok)
}
