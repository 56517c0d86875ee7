package directive

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scriptBody = "program new;\n{$I WaspLib/osr.simba}\nbegin\n  WriteLn('hi');\nend.\n"

func TestPatch_PrependsWhenMissing(t *testing.T) {
	out, err := Patch(scriptBody, "abc-123", 1)
	require.NoError(t, err)

	expected := "{$UNDEF SCRIPT_ID}{$DEFINE SCRIPT_ID := 'abc-123'}\n" +
		"{$UNDEF SCRIPT_REVISION}{$DEFINE SCRIPT_REVISION := '1'}\n" +
		scriptBody
	assert.Equal(t, expected, out)
	assert.True(t, strings.HasSuffix(out, scriptBody))
}

func TestPatch_EmptyFile(t *testing.T) {
	out, err := Patch("", "id", 7)
	require.NoError(t, err)
	assert.Equal(t, Line(ScriptID, "id")+"\n"+Line(ScriptRevision, "7")+"\n", out)
}

func TestPatch_ReplacesInPlace(t *testing.T) {
	in := "program new;\n" +
		"{$UNDEF SCRIPT_ID}{$DEFINE SCRIPT_ID := 'old'}\n" +
		"{$UNDEF SCRIPT_REVISION}{$DEFINE SCRIPT_REVISION := '9'}\n" +
		"begin end.\n"

	out, err := Patch(in, "new-id", 10)
	require.NoError(t, err)

	expected := "program new;\n" +
		"{$UNDEF SCRIPT_ID}{$DEFINE SCRIPT_ID := 'new-id'}\n" +
		"{$UNDEF SCRIPT_REVISION}{$DEFINE SCRIPT_REVISION := '10'}\n" +
		"begin end.\n"
	assert.Equal(t, expected, out)
	assert.Equal(t, len(in)+len("new-id")-len("old")+1, len(out))
	assert.Equal(t, 1, strings.Count(out, "{$UNDEF SCRIPT_ID}"))
	assert.Equal(t, 1, strings.Count(out, "{$UNDEF SCRIPT_REVISION}"))
}

func TestPatch_Idempotent(t *testing.T) {
	once, err := Patch(scriptBody, "id-1", 3)
	require.NoError(t, err)
	twice, err := Patch(once, "id-1", 3)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestPatch_NextRevisionKeepsID(t *testing.T) {
	for _, r := range []int{0, 1, 9, 99, 41, 999999998} {
		first, err := Patch(scriptBody, "script-id", r)
		require.NoError(t, err)
		second, err := Patch(first, "script-id", r+1)
		require.NoError(t, err)

		f := Parse(second)
		rev, ok := f.Get(ScriptRevision)
		require.True(t, ok)
		id, ok := f.Get(ScriptID)
		require.True(t, ok)
		assert.Equal(t, strconv.Itoa(r+1), rev)
		assert.Equal(t, "script-id", id)
		assert.Len(t, f.Directives(), 2)
	}
}

func TestPatch_NegativeRevision(t *testing.T) {
	_, err := Patch(scriptBody, "id", -1)
	assert.ErrorIs(t, err, ErrNegativeRevision)
}

func TestParse_ToleratesFormatting(t *testing.T) {
	in := "  {$undef   SCRIPT_ID} {$Define SCRIPT_ID:='x'} // stamped\r\nbody\r\n"
	f := Parse(in)

	v, ok := f.Get(ScriptID)
	require.True(t, ok)
	assert.Equal(t, "x", v)

	f.Set(ScriptID, "yz")
	assert.Equal(t, "  {$undef   SCRIPT_ID} {$Define SCRIPT_ID:='yz'} // stamped\r\nbody\r\n", f.String())
}

func TestParse_IgnoresMismatchedNames(t *testing.T) {
	f := Parse("{$UNDEF SCRIPT_ID}{$DEFINE OTHER := 'v'}\n")
	assert.Empty(t, f.Directives())

	f = Parse("{$UNDEF SCRIPT_IDX}{$DEFINE SCRIPT_IDX := 'v'}\n")
	_, ok := f.Get(ScriptID)
	assert.False(t, ok)
}

func TestParse_ValueWithQuote(t *testing.T) {
	f := Parse("{$UNDEF NAME}{$DEFINE NAME := 'it's'}\n")
	v, ok := f.Get("NAME")
	require.True(t, ok)
	assert.Equal(t, "it's", v)
}

func TestSet_OnlyFirstOccurrence(t *testing.T) {
	in := Line(ScriptID, "a") + "\n" + Line(ScriptID, "b") + "\n"
	f := Parse(in)
	f.Set(ScriptID, "c")
	assert.Equal(t, Line(ScriptID, "c")+"\n"+Line(ScriptID, "b")+"\n", f.String())
}

func TestDirectives_LineNumbers(t *testing.T) {
	f := Parse("a\n" + Line("X", "1") + "\n")
	f.Set("Y", "2")

	ds := f.Directives()
	require.Len(t, ds, 2)
	assert.Equal(t, "Y", ds[0].Name)
	assert.Equal(t, 0, ds[0].Line)
	assert.Equal(t, "X", ds[1].Name)
	assert.Equal(t, 2, ds[1].Line)
}

func TestPatch_TwoDirectivesOnOneLine(t *testing.T) {
	in := Line(ScriptRevision, "3") + Line(ScriptID, "old") + "\nbegin end.\n"

	out, err := Patch(in, "new", 4)
	require.NoError(t, err)
	assert.Equal(t, Line(ScriptRevision, "4")+Line(ScriptID, "new")+"\nbegin end.\n", out)
}

func TestPatch_DirectiveAfterText(t *testing.T) {
	in := "program new; " + Line(ScriptID, "old") + "\n" + Line(ScriptRevision, "1") + "\n"

	out, err := Patch(in, "a-much-longer-id", 2)
	require.NoError(t, err)
	assert.Equal(t, "program new; "+Line(ScriptID, "a-much-longer-id")+"\n"+Line(ScriptRevision, "2")+"\n", out)
}

func TestSet_ShiftsLaterDirectivesOnLine(t *testing.T) {
	f := Parse(Line("A", "1") + Line("B", "2") + Line("C", "3") + "\n")
	require.Len(t, f.Directives(), 3)

	f.Set("A", "longer")
	f.Set("B", "")
	f.Set("C", "x")
	assert.Equal(t, Line("A", "longer")+Line("B", "")+Line("C", "x")+"\n", f.String())

	reparsed := Parse(f.String())
	assert.Equal(t, f.Directives(), reparsed.Directives())
}

func TestPatch_OneDirectivePerName(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"none", scriptBody},
		{"separate lines", Line(ScriptID, "old") + "\n" + Line(ScriptRevision, "7") + "\n" + scriptBody},
		{"same line", Line(ScriptRevision, "7") + Line(ScriptID, "old") + "\n" + scriptBody},
		{"same line reversed", Line(ScriptID, "old") + Line(ScriptRevision, "7") + "\n" + scriptBody},
		{"mid line", "program new; " + Line(ScriptID, "old") + " " + Line(ScriptRevision, "7") + " // stamp\nbegin end.\n"},
		{"only revision", Line(ScriptRevision, "7") + "\n" + scriptBody},
		{"crlf", Line(ScriptID, "old") + "\r\n" + Line(ScriptRevision, "7") + "\r\nbegin\r\nend.\r\n"},
		{"crlf same line", Line(ScriptRevision, "7") + Line(ScriptID, "old") + "\r\nbegin\r\nend.\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Patch(tt.in, "new-id", 8)
			require.NoError(t, err)

			counts := map[string]int{}
			for _, d := range Parse(out).Directives() {
				counts[d.Name]++
				switch d.Name {
				case ScriptID:
					assert.Equal(t, "new-id", d.Value)
				case ScriptRevision:
					assert.Equal(t, "8", d.Value)
				}
			}
			assert.Equal(t, 1, counts[ScriptID])
			assert.Equal(t, 1, counts[ScriptRevision])
			assert.NotContains(t, out, "'old'")

			again, err := Patch(out, "new-id", 8)
			require.NoError(t, err)
			assert.Equal(t, out, again)
		})
	}
}
