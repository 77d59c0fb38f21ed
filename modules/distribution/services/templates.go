package services

import (
	"html"
	"strings"
)

const (
	DefaultFolder  = "Manager Report"
	DefaultSubject = "{fiscal_year} Attainment Report - {manager_name}"
)

// DefaultBody is the plain-text counterpart of the default HTML body.
const DefaultBody = "Hi {manager_name},\n" +
	"\n" +
	"Please find attached your {fiscal_year} Attainment Report.\n" +
	"\n" +
	"This report includes attainment data for your team, organized by hierarchy " +
	"with quarterly, half-year, and annual breakdowns.\n" +
	"\n" +
	"If you have any questions about the data, please reach out to the " +
	"Sales Compensation team.\n" +
	"\n" +
	"Best regards,\n" +
	"Sales Compensation"

const defaultHTML = `<html>
<body style="font-family: Calibri, Arial, sans-serif; font-size: 11pt; color: #333;">
<p>Hi {manager_name},</p>

<p>Please find attached your <b>{fiscal_year} Attainment Report</b>.</p>

<p>This report includes attainment data for your team, organized by hierarchy
with quarterly, half-year, and annual breakdowns.</p>

<p>If you have any questions about the data, please reach out to the
Sales Compensation team.</p>

<p>Best regards,<br>
Sales Compensation</p>
</body>
</html>
`

// Templates fill subject and body placeholders {manager_name} and
// {fiscal_year}. An empty Subject or Body falls back to the defaults; a
// custom Body is plain text and is converted to HTML.
type Templates struct {
	FiscalYear string
	Subject    string
	Body       string
}

// Render returns the subject and HTML body for one manager.
func (t Templates) Render(managerName string) (subject, htmlBody string) {
	fill := strings.NewReplacer("{manager_name}", managerName, "{fiscal_year}", t.FiscalYear)

	subject = t.Subject
	if strings.TrimSpace(subject) == "" {
		subject = DefaultSubject
	}
	subject = fill.Replace(subject)

	if strings.TrimSpace(t.Body) == "" {
		return subject, fill.Replace(defaultHTML)
	}
	return subject, PlainTextToHTML(fill.Replace(t.Body))
}

// PlainTextToHTML escapes text and turns blank-line separated paragraphs into
// <p> elements and single newlines into <br>.
func PlainTextToHTML(text string) string {
	escaped := html.EscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	paragraphs := strings.Split(escaped, "\n\n")
	for i, p := range paragraphs {
		paragraphs[i] = "<p>" + strings.ReplaceAll(p, "\n", "<br>\n") + "</p>"
	}
	return "<html>\n<body style=\"font-family: Calibri, Arial, sans-serif; font-size: 11pt; color: #333;\">\n" +
		strings.Join(paragraphs, "\n\n") +
		"\n</body>\n</html>"
}
