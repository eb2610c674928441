package preview

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// fallback Outcome construction. Every fallback carries the file's name,
// size and MIME type, a plain-language reason, and at least one remedial
// action. The end user is never shown a raw stack trace.

const suggestionDownload = "Download the original file to view its contents."

// invalidInputOutcome covers empty blobs and empty filenames. Status is
// error: the request itself was malformed.
func invalidInputOutcome(fileName, mimeType string, size int) *Outcome {
	reason := "The uploaded file is empty or the request is invalid."
	o := &Outcome{
		Status:  StatusError,
		Format:  FormatText,
		Content: reason + " " + suggestionDownload,
	}
	fillFileMeta(o, fileName, mimeType, size)
	o.SetMeta(MetaFailureReason, reason)
	o.SetMeta(MetaSuggestion, suggestionDownload)
	return o
}

// noHandlerOutcome is returned when no registered handler matches the file.
func noHandlerOutcome(fileName, mimeType string, size int) *Outcome {
	o := &Outcome{
		Status: StatusSuccess,
		Format: FormatHTML,
		Content: fallbackHTML(
			"Preview not supported",
			fmt.Sprintf("No preview is available for this file type (%s).", orUnknown(mimeType)),
			fileName, mimeType, size,
			[]string{
				suggestionDownload,
				"Convert the file to a supported format (PDF, Office, text, image) and upload again.",
			}),
	}
	fillFileMeta(o, fileName, mimeType, size)
	o.SetMeta(MetaFailureReason, "no matching preview handler")
	o.SetMeta(MetaSuggestion, suggestionDownload)
	return o
}

// handlerFailureOutcome is returned when the chosen handler errored, timed
// out or panicked. Status stays success at the wrapping level: the outcome
// carries actionable fallback content.
func handlerFailureOutcome(handler, fileName, mimeType string, size int, cause string) *Outcome {
	o := &Outcome{
		Status: StatusSuccess,
		Format: FormatHTML,
		Content: fallbackHTML(
			"Preview unavailable",
			"The preview could not be generated for this file.",
			fileName, mimeType, size,
			[]string{
				suggestionDownload,
				"Refresh the page and try again.",
				"If the problem persists, contact support.",
			}),
	}
	fillFileMeta(o, fileName, mimeType, size)
	o.SetMeta(MetaHandler, handler)
	o.SetMeta(MetaFailureReason, cause)
	o.SetMeta(MetaSuggestion, suggestionDownload)
	return o
}

// catastrophicOutcome is the minimal unstyled outcome used when fallback
// construction itself failed.
func catastrophicOutcome(fileName string) *Outcome {
	return &Outcome{
		Status:  StatusError,
		Format:  FormatText,
		Content: fmt.Sprintf("Preview failed for %q. Download the original file instead.", fileName),
	}
}

func fillFileMeta(o *Outcome, fileName, mimeType string, size int) {
	o.SetMeta(MetaFileName, fileName)
	o.SetMeta(MetaMimeType, mimeType)
	o.SetMeta(MetaFileSize, strconv.Itoa(size))
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// fallbackHTML renders the shared fallback block: heading, reason, file
// facts, remediation list.
func fallbackHTML(title, reason, fileName, mimeType string, size int, suggestions []string) string {
	var sb strings.Builder
	sb.WriteString(`<div class="preview-fallback">`)
	sb.WriteString("<h2>" + html.EscapeString(title) + "</h2>")
	sb.WriteString("<p>" + html.EscapeString(reason) + "</p>")
	sb.WriteString("<ul>")
	sb.WriteString("<li>File: " + html.EscapeString(fileName) + "</li>")
	sb.WriteString("<li>Type: " + html.EscapeString(orUnknown(mimeType)) + "</li>")
	sb.WriteString("<li>Size: " + formatSize(size) + "</li>")
	sb.WriteString("</ul>")
	sb.WriteString("<p>What you can do:</p><ul>")
	for _, s := range suggestions {
		sb.WriteString("<li>" + html.EscapeString(s) + "</li>")
	}
	sb.WriteString("</ul></div>")
	return sb.String()
}

func formatSize(size int) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
