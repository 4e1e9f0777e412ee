package printing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatement(t *testing.T) {
	tmpl, err := parseStatement("client", `<p>{{.}}</p><span>{{formatMoney $.Amount}}</span>`)
	require.NoError(t, err)
	assert.Equal(t, "client", tmpl.Name())

	_, err = parseStatement("empty", "  ")
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	_, err = parseStatement("broken", `{{.Reference`)
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestExecuteStatement_EscapesData(t *testing.T) {
	tmpl, err := parseStatement("client", `<p>{{.}}</p>`)
	require.NoError(t, err)

	html, err := executeStatement(tmpl, "<b>Diop & Fils</b>")

	require.NoError(t, err)
	assert.Equal(t, "<p>&lt;b&gt;Diop &amp; Fils&lt;/b&gt;</p>", html)
}

func TestExecuteStatement_MissingField(t *testing.T) {
	tmpl, err := parseStatement("line", `{{.Commission}}`)
	require.NoError(t, err)

	_, err = executeStatement(tmpl, struct{ Reference string }{"BRD-2024-00001"})

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeRenderFailed, renderErr.Code)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"999", "999"},
		{"1000", "1 000"},
		{"25100", "25 100"},
		{"1234567.5", "1 234 567,50"},
		{"-3000", "-3 000"},
		{"-0.25", "-0,25"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAmount(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestStatementFuncs(t *testing.T) {
	tmpl, err := parseStatement("funcs",
		`{{formatMoney .Amount}}|{{formatDate .At}}|{{formatDateTime .At}}|{{formatDate .Zero}}|{{inc 0}}`)
	require.NoError(t, err)

	out, err := executeStatement(tmpl, struct {
		Amount   decimal.Decimal
		At, Zero time.Time
	}{decimal.NewFromInt(40000), time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC), time.Time{}})

	require.NoError(t, err)
	assert.Equal(t, "40 000 FCFA|09/03/2024|09/03/2024 14:05||1", out)
}

func TestStringHelpers(t *testing.T) {
	assert.Equal(t, "Awa", truncate("Awa", 10))
	assert.Equal(t, "Abdou…", truncate("Abdoulaye", 6))
	assert.Equal(t, "-", defaultString("-", "  "))
	assert.Equal(t, "POL-1", defaultString("-", "POL-1"))
	assert.Equal(t, "Clôturé", statusText("closed"))
	assert.Equal(t, "unknown", statusText("unknown"))
	assert.Equal(t, "SOCIÉTÉ GÉNÉRALE", upper("Société Générale"))
}
