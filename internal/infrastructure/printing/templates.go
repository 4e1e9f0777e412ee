package printing

import (
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// statementFuncs are the helpers the printed statements may call
var statementFuncs = template.FuncMap{
	"formatAmount":   formatAmount,
	"formatMoney":    func(d decimal.Decimal) string { return formatAmount(d) + " FCFA" },
	"formatDate":     func(t time.Time) string { return formatTime(t, "02/01/2006") },
	"formatDateTime": func(t time.Time) string { return formatTime(t, "02/01/2006 15:04") },
	"truncate":       truncate,
	"default":        defaultString,
	"inc":            func(i int) int { return i + 1 },
	"statusText":     statusText,
	"upper":          upper,
}

var statusLabels = map[string]string{
	"draft":     "Brouillon",
	"closed":    "Clôturé",
	"validated": "Validé",
	"active":    "En cours",
	"expired":   "Échu",
	"cancelled": "Annulé",
}

// parseStatement compiles an embedded statement template. Data is escaped
// by html/template.
func parseStatement(name, content string) (*template.Template, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "template content is empty", nil)
	}
	t, err := template.New(name).Funcs(statementFuncs).Parse(content)
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse template "+name, err)
	}
	return t, nil
}

func executeStatement(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template "+t.Name(), err)
	}
	return sb.String(), nil
}

// formatAmount writes FCFA amounts the way the companies' statements do:
// space-grouped thousands, comma decimals, no decimals when whole.
// 1234567.5 gives "1 234 567,50".
func formatAmount(d decimal.Decimal) string {
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")

	var sb strings.Builder
	if d.IsNegative() {
		sb.WriteByte('-')
	}
	lead := len(whole) % 3
	if lead == 0 {
		lead = 3
	}
	sb.WriteString(whole[:lead])
	for i := lead; i < len(whole); i += 3 {
		sb.WriteByte(' ')
		sb.WriteString(whole[i : i+3])
	}
	if frac != "00" {
		sb.WriteByte(',')
		sb.WriteString(frac)
	}
	return sb.String()
}

func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

// truncate cuts s to n runes, the last being an ellipsis
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:max(n, 0)])
	}
	return string(runes[:n-1]) + "…"
}

func defaultString(fallback, s string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// upper uses French casing rules so accented names keep their accents
func upper(s string) string {
	return cases.Upper(language.French).String(s)
}

func statusText(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}
