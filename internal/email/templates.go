package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

var (
	htmlTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

func renderAssignmentEmail(data AssignmentEmail) (string, string, error) {
	var htmlBuf, textBuf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&htmlBuf, "assignment.html", data); err != nil {
		return "", "", fmt.Errorf("render assignment html: %w", err)
	}
	if err := textTemplates.ExecuteTemplate(&textBuf, "assignment.txt", data); err != nil {
		return "", "", fmt.Errorf("render assignment text: %w", err)
	}
	return htmlBuf.String(), textBuf.String(), nil
}
