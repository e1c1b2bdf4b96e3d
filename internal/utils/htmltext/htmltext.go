// Package htmltext renders small HTML fragments as readable plain text,
// used for the text/plain alternative of notification mail.
package htmltext

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

func Render(html string) string {
	conv := md.NewConverter("", true, nil)
	out, err := conv.ConvertString(html)
	if err != nil {
		return ""
	}
	out = blankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
