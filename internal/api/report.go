package api

import (
	"bytes"
	"embed"
	"html/template"
	"io"
)

//go:embed templates/report.html
var templateFS embed.FS

var reportTemplate = template.Must(template.ParseFS(templateFS, "templates/report.html"))

// RenderReport writes the report page with the named parameters
// access_token, email, name and sub.
func RenderReport(w io.Writer, report *RegistrationReport) error {
	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, map[string]string{
		"access_token": report.AccessToken,
		"email":        report.Email,
		"name":         report.Name,
		"sub":          report.Sub,
	})
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}
