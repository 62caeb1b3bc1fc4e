// Package markup rend le sous-ensemble de mise en forme accepté dans les
// réponses de l'assistant: gras, italique, sauts de ligne. Rien d'autre n'est
// interprété; le texte brut passe tel quel.
package markup

import (
	"regexp"
	"strings"
)

var (
	reBold   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic = regexp.MustCompile(`\*([^*\n]+)\*`)
)

// Render convertit **gras**, *italique* et les sauts de ligne en HTML.
// Le gras est traité avant l'italique pour que ** ne soit pas mangé par *.
func Render(text string) string {
	out := reBold.ReplaceAllString(text, "<strong>$1</strong>")
	out = reItalic.ReplaceAllString(out, "<em>$1</em>")
	out = strings.ReplaceAll(out, "\r\n", "\n")
	out = strings.ReplaceAll(out, "\n", "<br>")
	return out
}
