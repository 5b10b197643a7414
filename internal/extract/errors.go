package extract

import (
	"strings"

	"botprobe/lib/htmlutil"
)

// Options controls how non-200 and failed requests are displayed.
type Options struct {
	MaxLength int
	// HtmlErrorText replaces HTML error pages with their visible text.
	HtmlErrorText bool
}

func (o Options) maxLength() int {
	if o.MaxLength <= 0 {
		return DefaultMaxLength
	}
	return o.MaxLength
}

// ErrorPage is the display string of a non-200 response: the raw body, trimmed.
func (o Options) ErrorPage(body, contentType string) Extraction {
	body = strings.TrimSpace(body)
	if o.HtmlErrorText && htmlutil.IsDocument(contentType, body) {
		if text, ok := htmlutil.VisibleText(body); ok {
			body = text
		}
	}
	return newExtraction(body, o.maxLength(), HttpError)
}

// Failure is the display string of a request that never got a response.
func (o Options) Failure(message string) Extraction {
	return newExtraction(message, o.maxLength(), NetworkError)
}

// Success is Reply bounded by the configured length.
func (o Options) Success(body string) Extraction {
	return Reply(body, o.maxLength())
}
