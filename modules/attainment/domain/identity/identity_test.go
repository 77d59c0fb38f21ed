package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "Name (123)", want: "Name"},
		{in: "  Jane Doe   (482) ", want: "Jane Doe"},
		{in: "Li Wei (黄策) (77)", want: "Li Wei (黄策)"},
		{in: "No Id Here ", want: "No Id Here"},
		{in: "", want: ""},
		{in: "(123)", want: "(123)"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ExtractName(tc.in), tc.in)
	}
	require.Equal(t, Unknown, NameOf("", false))
	require.Equal(t, "Name", NameOf("Name (1)", true))
}

func TestExtractID(t *testing.T) {
	id, ok := ExtractID("Name (123)")
	require.True(t, ok)
	require.Equal(t, "123", id)

	id, ok = ExtractID("Li Wei (黄策) ( 0077 )")
	require.True(t, ok)
	require.Equal(t, "0077", id)

	for _, in := range []string{"Name", "", "(12)", "Name )12(", "Name (12"} {
		_, ok := ExtractID(in)
		require.False(t, ok, in)
	}
}

func TestNormalizeID(t *testing.T) {
	require.Equal(t, "7", NormalizeID("007"))
	require.Equal(t, "0", NormalizeID("000"))
	require.Equal(t, "0", NormalizeID(""))
	require.Equal(t, "120", NormalizeID("0120"))

	id, ok := ParseID("Name (007)")
	require.True(t, ok)
	require.Equal(t, "7", id)
}

func TestParse(t *testing.T) {
	p := Parse("Bob Smith (0042)")
	require.Equal(t, "Bob Smith", p.Name())
	require.Equal(t, "42", p.ID())
	require.True(t, p.HasID())

	require.False(t, Parse("Bob Smith").HasID())
}

func TestDisplayAndReportName(t *testing.T) {
	require.Equal(t, "Li Wei", DisplayName("Li Wei (黄策) (77)"))
	require.Equal(t, "Jane Doe", DisplayName("Jane Doe (482)"))
	require.Equal(t, "Li Wei", ReportName("Li Wei (黄策) (77)"))
}

func TestSanitizeForFilename(t *testing.T) {
	require.Equal(t, "Li Wei", SanitizeForFilename("Li Wei (黄策)"))
	require.Equal(t, "a_b_c_d_e_f_g_h_i", SanitizeForFilename(`a\b/c:d*e?f"g<h>i`))
	require.Equal(t, "O_Neil_ Ops", SanitizeForFilename(" O|Neil: Ops "))
}

func TestSanitizeForFilename_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Plain Name",
		"Name (alias) (123)",
		"a((b)c)",
		"a(b(c)d)e",
		"(a)(",
		"x ( y",
		"trailing (open",
		"  spaced  (x)  ",
		`all\/:*?"<>|bad`,
		"e(x)́",
		"Zoë (ゾエ) | Lead",
		"　(full width)　name",
		") leading close",
	}
	for _, in := range inputs {
		once := SanitizeForFilename(in)
		require.Equal(t, once, SanitizeForFilename(once), "input %q", in)
		require.False(t, strings.ContainsAny(once, `\/:*?"<>|`), "input %q", in)
	}
}
