package htmlutil

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// IsDocument guesses whether a response is an html page, from its content type
// first and its leading markup second.
func IsDocument(contentType, body string) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	lowered := strings.ToLower(strings.TrimSpace(body))
	return strings.HasPrefix(lowered, "<!doctype html") || strings.HasPrefix(lowered, "<html")
}

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// VisibleText returns the text a browser would show for `body` with whitespace
// runs collapsed, false is returned when there is no such text.
func VisibleText(body string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", false
	}
	doc.Find("script, style, noscript, template").Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	text = removeNonPrintable(text)
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", false
	}
	return text, true
}
