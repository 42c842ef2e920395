package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderGenericEmail generates branded HTML for a generic email.
// The subject is displayed in the header banner, and bodyContent is plain text
// that gets HTML-escaped and has newlines converted to <br> tags.
func RenderGenericEmail(subject, bodyContent string) string {
	escaped := html.EscapeString(bodyContent)
	return layout(subject, strings.ReplaceAll(escaped, "\n", "<br>"))
}

// layout wraps already escaped body HTML in the leng frame
func layout(subject, bodyHTML string) string {
	safeSubject := html.EscapeString(subject)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Inter', Helvetica, Arial, sans-serif; margin: 0; padding: 0; background-color: #f4f4f7; }
    .container { max-width: 560px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; overflow: hidden; }
    .header { background: #111827; padding: 32px 24px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 22px; }
    .content { padding: 32px 24px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .quote { border-left: 3px solid #6366f1; padding-left: 12px; color: #4b5563; }
    .footer { padding: 24px; text-align: center; color: #9ca3af; font-size: 12px; }
    .footer a { color: #6366f1; text-decoration: none; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header"><h1>%s</h1></div>
    <div class="content">%s</div>
    <div class="footer"><p>&copy; leng | <a href="https://leng.app">leng.app</a></p></div>
  </div>
</body>
</html>`, safeSubject, safeSubject, bodyHTML)
}
