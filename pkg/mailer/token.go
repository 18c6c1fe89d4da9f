package mailer

import (
	"fmt"
	"strconv"
	"strings"
)

// The fixed placeholder vocabulary. Tokens are matched literally and
// case-sensitively; the set is prefix-free, so substitution order does not
// matter. Anything else that looks like a placeholder is left untouched.
const (
	TokenNameOnTemplate = "#nameontemplate"
	TokenInstallments   = "#numinstallaments"
	TokenPrice          = "#price"
	TokenICreditLink    = "#icreditlink"
	TokenIFormsLink     = "#iformslink"
	TokenPatientName    = "#nameofpatient"
)

// Tokens lists the full vocabulary in a stable order.
func Tokens() []string {
	return []string{
		TokenNameOnTemplate,
		TokenInstallments,
		TokenPrice,
		TokenICreditLink,
		TokenIFormsLink,
		TokenPatientName,
	}
}

// RenderTemplate substitutes the token vocabulary into body. The link tokens
// expand to complete anchor elements; all other tokens substitute their
// context value verbatim. Pure string transform, single pass: replaced text
// is never rescanned.
func RenderTemplate(body string, ctx RenderContext) string {
	r := strings.NewReplacer(
		TokenNameOnTemplate, ctx.NameOnTemplate,
		TokenInstallments, strconv.Itoa(ctx.Installment),
		TokenPrice, FormatPrice(ctx.Price),
		TokenICreditLink, anchor(ctx.ICreditLink, ctx.ICreditText),
		TokenIFormsLink, anchor(ctx.IFormsLink, ctx.IFormsText),
		TokenPatientName, ctx.PatientName,
	)
	return r.Replace(body)
}

// FormatPrice renders a price the way it appears in emails: no exponent, no
// trailing zeros.
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func anchor(href, text string) string {
	return fmt.Sprintf(`<a href="%s" style="color:#0066cc;text-decoration:underline;">%s</a>`, href, text)
}
