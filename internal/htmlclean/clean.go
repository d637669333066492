// Package htmlclean normalizes model-generated HTML into a complete document.
//
// The cleanup is regex driven and best effort. The only hard guarantee is
// that the output always has a doctype, an <html> element with <head> and
// <body>, and the expected <title>.
package htmlclean

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

const (
	metaCharset  = `<meta charset="UTF-8">`
	metaViewport = `<meta name="viewport" content="width=device-width, initial-scale=1.0">`
	titleSuffix  = " - My Website"
)

var (
	fencedBlockRe = regexp.MustCompile("(?is)```html\\s*\\n(.*?)\\n\\s*```")
	fenceMarkerRe = regexp.MustCompile("(?i)```(?:html)?\\n?")
	commentRe     = regexp.MustCompile(`(?s)<!--.*?-->`)
	metaParaRe    = regexp.MustCompile(`(?is)<p(?:\s[^>]*)?>\s*(?:This code creates|This HTML page is designed|Here is|Generated by|Explanation|Note|Description)\b.*?</p>`)
	doctypeRe     = regexp.MustCompile(`(?i)<!doctype[^>]*>`)
	htmlOpenRe    = regexp.MustCompile(`(?i)<html(?:\s[^>]*)?>`)
	headOpenRe    = regexp.MustCompile(`(?i)<head(?:\s[^>]*)?>`)
	headCloseRe   = regexp.MustCompile(`(?i)</head\s*>`)
	bodyOpenRe    = regexp.MustCompile(`(?i)<body(?:\s[^>]*)?>`)
	bodyCloseRe   = regexp.MustCompile(`(?i)</body\s*>`)
	htmlCloseRe   = regexp.MustCompile(`(?i)</html\s*>`)
	titleRe       = regexp.MustCompile(`(?is)<title(?:\s[^>]*)?>.*?</title\s*>`)
	documentRe    = regexp.MustCompile(`(?is)<html(?:\s[^>]*)?>.*</html\s*>`)
)

// Clean extracts the HTML document from raw model output and repairs its
// shell. It never fails; unrepairable input yields an error page.
func Clean(raw, pageTitle string) string {
	title := Title(pageTitle)

	content := raw
	if m := fencedBlockRe.FindStringSubmatch(raw); m != nil {
		content = m[1]
	}

	content = fenceMarkerRe.ReplaceAllString(content, "")
	content = commentRe.ReplaceAllString(content, "")
	content = metaParaRe.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)

	content = ensureShell(content)
	content = ensureHead(content)
	content = ensureBody(content)
	content = setTitle(content, title)

	if !strings.HasSuffix(strings.ToLower(content), "</html>") {
		content += "\n</html>"
	}

	if !documentRe.MatchString(content) {
		return ErrorPage(pageTitle)
	}
	return strings.TrimSpace(content)
}

// Title returns the <title> text used for a page name.
func Title(pageTitle string) string {
	return strings.TrimSuffix(strings.TrimSpace(pageTitle), ".html") + titleSuffix
}

// ErrorPage is the document returned when the output cannot be repaired.
func ErrorPage(pageTitle string) string {
	name := strings.TrimSuffix(strings.TrimSpace(pageTitle), ".html")
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
%s
%s
<title>%s</title>
</head>
<body>
<p>Error: Invalid HTML generated for %s</p>
</body>
</html>`, metaCharset, metaViewport, html.EscapeString(Title(pageTitle)), html.EscapeString(name))
}

// InsertBeforeHeadEnd places snippet just before </head>, or at the start of
// the document when there is no head.
func InsertBeforeHeadEnd(doc, snippet string) string {
	if loc := headCloseRe.FindStringIndex(doc); loc != nil {
		return doc[:loc[0]] + snippet + "\n" + doc[loc[0]:]
	}
	return snippet + "\n" + doc
}

// InsertBeforeBodyEnd places snippet just before the last </body>, or at the
// end of the document when there is none.
func InsertBeforeBodyEnd(doc, snippet string) string {
	locs := bodyCloseRe.FindAllStringIndex(doc, -1)
	if len(locs) == 0 {
		return doc + "\n" + snippet
	}
	at := locs[len(locs)-1][0]
	return doc[:at] + snippet + "\n" + doc[at:]
}

func ensureShell(content string) string {
	if !htmlOpenRe.MatchString(content) {
		content = strings.TrimSpace(doctypeRe.ReplaceAllString(content, ""))
		content = "<html lang=\"en\">\n" + content + "\n</html>"
	}
	if !strings.HasPrefix(strings.ToLower(content), "<!doctype html") {
		content = "<!DOCTYPE html>\n" + strings.TrimSpace(doctypeRe.ReplaceAllString(content, ""))
	}
	return content
}

func ensureHead(content string) string {
	if headOpenRe.MatchString(content) {
		return content
	}
	head := "\n<head>\n" + metaCharset + "\n" + metaViewport + "\n</head>"
	loc := htmlOpenRe.FindStringIndex(content)
	return content[:loc[1]] + head + content[loc[1]:]
}

func ensureBody(content string) string {
	if !bodyOpenRe.MatchString(content) {
		at := 0
		if loc := headCloseRe.FindStringIndex(content); loc != nil {
			at = loc[1]
		} else if loc := headOpenRe.FindStringIndex(content); loc != nil {
			at = loc[1]
		}
		content = content[:at] + "\n<body>" + content[at:]
	}

	if !bodyCloseRe.MatchString(content) {
		locs := htmlCloseRe.FindAllStringIndex(content, -1)
		if len(locs) == 0 {
			content += "\n</body>"
		} else {
			at := locs[len(locs)-1][0]
			content = content[:at] + "</body>\n" + content[at:]
		}
	}
	return content
}

// setTitle only looks for an existing title inside the head, so inline SVG
// titles in the body are left alone.
func setTitle(content, title string) string {
	tag := "<title>" + html.EscapeString(title) + "</title>"
	headOpen := headOpenRe.FindStringIndex(content)
	start, end := headOpen[1], len(content)
	if loc := headCloseRe.FindStringIndex(content[start:]); loc != nil {
		end = start + loc[0]
		if loc := titleRe.FindStringIndex(content[start:end]); loc != nil {
			return content[:start+loc[0]] + tag + content[start+loc[1]:]
		}
		return content[:end] + tag + "\n" + content[end:]
	}
	if loc := bodyOpenRe.FindStringIndex(content[start:]); loc != nil {
		end = start + loc[0]
	}
	if loc := titleRe.FindStringIndex(content[start:end]); loc != nil {
		return content[:start+loc[0]] + tag + content[start+loc[1]:]
	}
	return content[:start] + "\n" + tag + content[start:]
}
