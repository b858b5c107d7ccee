// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/huddle/internal/model"
	"github.com/jeranaias/huddle/internal/util"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a self-contained HTML page.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML.
// SECURITY: All message text is escaped before URLs are turned into links.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(t.Title())))
	sb.WriteString("    <meta name=\"generator\" content=\"huddle\">\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", t.ExportedAt.Format(time.RFC3339)))
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(t))
	}

	sb.WriteString("        <main class=\"messages\">\n")
	for _, msg := range t.Messages {
		sb.WriteString(e.renderMessage(t, msg))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>huddle</strong> on %s</p>\n",
		t.ExportedAt.Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(t *Transcript) string {
	var sb strings.Builder

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(t.Title())))
	sb.WriteString("            <div class=\"metadata\">\n")
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(t.Messages)))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Source:</strong> %s</span>\n", html.EscapeString(t.Source)))
	if t.ViewerName != "" {
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Exported by:</strong> %s</span>\n", html.EscapeString(t.ViewerName)))
	}
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Exported:</strong> %s</span>\n", formatTimestamp(t.ExportedAt)))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")

	return sb.String()
}

func (e *HTMLExporter) renderMessage(t *Transcript, msg model.Message) string {
	if msg.IsSystem() {
		return fmt.Sprintf("            <div class=\"message system\">%s</div>\n", util.LinkifyHTML(msg.Content))
	}

	class := "message"
	if t.ViewerID != "" && msg.UserID == t.ViewerID {
		class += " own"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("            <div class=\"%s\">\n", class))
	sb.WriteString("                <div class=\"meta\">")
	sb.WriteString(fmt.Sprintf("<span class=\"author\" style=\"color: %s\">%s</span>",
		util.UserColor(msg.UserID), html.EscapeString(senderLabel(msg))))
	if e.options.IncludeTimestamps {
		sb.WriteString(fmt.Sprintf(" <time>%s</time>", formatShortTimestamp(msg.Timestamp.Time)))
	}
	sb.WriteString("</div>\n")
	sb.WriteString(fmt.Sprintf("                <div class=\"content\">%s</div>\n",
		strings.ReplaceAll(util.LinkifyHTML(msg.Content), "\n", "<br>\n")))
	sb.WriteString("            </div>\n")
	return sb.String()
}

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-own: #2f3549;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --border-color: #414868;
            --accent: #7aa2f7;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-own: #e8f0fe;
            --text-primary: #24292e;
            --text-muted: #6a737d;
            --border-color: #e1e4e8;
            --accent: #0366d6;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            line-height: 1.5;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container { max-width: 800px; margin: 0 auto; background: var(--bg-secondary); border-radius: 12px; overflow: hidden; }
        .header { padding: 24px; border-bottom: 1px solid var(--border-color); }
        .header h1 { font-size: 24px; margin-bottom: 8px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 13px; color: var(--text-muted); }
        .messages { padding: 16px 24px; display: flex; flex-direction: column; gap: 10px; }
        .message { max-width: 75%; padding: 8px 12px; border-radius: 10px; border: 1px solid var(--border-color); }
        .message.own { align-self: flex-end; background: var(--bg-own); }
        .message.system { align-self: center; font-style: italic; color: var(--text-muted); border: none; }
        .meta { font-size: 12px; margin-bottom: 2px; }
        .author { font-weight: 600; }
        time { color: var(--text-muted); margin-left: 6px; }
        .content { word-wrap: break-word; }
        a { color: var(--accent); }
        .footer { padding: 16px 24px; font-size: 12px; color: var(--text-muted); border-top: 1px solid var(--border-color); }
    </style>
`
