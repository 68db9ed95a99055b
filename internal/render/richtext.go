package render

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// richText converts operator-authored Markdown into sanitized HTML for
// text components. Sanitization strips scripts and event handlers so
// component content can never inject behavior outside the behavior
// channel.
type richText struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

func newRichText() *richText {
	return &richText{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// Render converts Markdown source to sanitized HTML.
func (rt *richText) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := rt.markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return rt.policy.Sanitize(buf.String()), nil
}
