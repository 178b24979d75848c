package preview

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/comment.md.tmpl
var commentTemplates embed.FS

var commentTemplate = template.Must(template.ParseFS(commentTemplates, "templates/comment.md.tmpl"))

// RenderComment renders the pull-request comment listing preview links in input order.
func RenderComment(previews []Tutorial) (string, error) {
	var sb strings.Builder
	if err := commentTemplate.Execute(&sb, previews); err != nil {
		return "", fmt.Errorf("execute comment template: %w", err)
	}
	return sb.String(), nil
}
