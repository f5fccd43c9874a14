// Package export renders debate session transcripts to shareable formats.
package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/openfloor/debateprep/internal/store"
)

// Format selects the export rendering.
type Format string

const (
	Markdown  Format = "markdown"
	HTML      Format = "html"
	PlainText Format = "text"
)

// ParseFormat maps a user-supplied format string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "markdown", "md":
		return Markdown, nil
	case "html":
		return HTML, nil
	case "text", "txt", "plain":
		return PlainText, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Session renders a session with its participants and transcript.
// providerModel, if non-empty, is included in the metadata header.
func Session(s *store.Session, participants []store.Participant, turns []store.Turn, format Format, providerModel string) (string, error) {
	switch format {
	case Markdown:
		return toMarkdown(s, participants, turns, providerModel), nil
	case HTML:
		return toHTML(s, participants, turns, providerModel), nil
	case PlainText:
		return toPlainText(s, participants, turns, providerModel), nil
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
}

func participantName(participants []store.Participant, id int64) string {
	for _, p := range participants {
		if p.ID == id {
			if p.Archived {
				return p.Name + " (archived)"
			}
			return p.Name
		}
	}
	return "Unknown"
}

func displayName(p store.Participant) string {
	if p.Archived {
		return p.Name + " (archived)"
	}
	return p.Name
}

func timestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
}

func clock(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("15:04:05")
}

func toMarkdown(s *store.Session, participants []store.Participant, turns []store.Turn, providerModel string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", s.Title)
	fmt.Fprintf(&b, "**Topic**: %s\n", s.Topic)
	if strings.TrimSpace(s.Rules) != "" {
		fmt.Fprintf(&b, "**Rules**: %s\n", s.Rules)
	}
	fmt.Fprintf(&b, "**Date**: %s\n", timestamp(s.CreatedAt))
	if providerModel != "" {
		fmt.Fprintf(&b, "**Provider/Model**: %s\n", providerModel)
	}
	b.WriteString("\n**Participants**:\n")
	for _, p := range participants {
		fmt.Fprintf(&b, "- %s: %s\n", displayName(p), p.Position)
	}

	b.WriteString("\n---\n\n## Transcript\n\n")

	if len(turns) == 0 {
		b.WriteString("*No turns recorded.*\n")
	} else {
		for _, t := range turns {
			fmt.Fprintf(&b, "**[%s] %s**\n", clock(t.CreatedAt), participantName(participants, t.ParticipantID))
			for _, line := range strings.Split(t.Content, "\n") {
				if line == "" {
					continue
				}
				fmt.Fprintf(&b, "> %s\n", line)
			}
			if t.IsIncomplete {
				b.WriteString("> *(Response incomplete)*\n")
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "*Export generated on %s*\n", timestamp(time.Now().UnixMilli()))
	return b.String()
}

func toHTML(s *store.Session, participants []store.Participant, turns []store.Turn, providerModel string) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"UTF-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(s.Title))
	b.WriteString(`<style>
body { font-family: system-ui, sans-serif; line-height: 1.6; max-width: 800px; margin: 0 auto; padding: 20px; }
.metadata { background: #f5f5f5; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
.turn { margin: 20px 0; padding: 15px; border-left: 4px solid #007acc; background: #f9f9f9; }
.turn-header { font-weight: bold; color: #007acc; margin-bottom: 10px; }
.turn-content { white-space: pre-wrap; }
.incomplete { color: #666; font-style: italic; }
.archived { color: #999; }
</style>
`)
	b.WriteString("</head>\n<body>\n")

	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(s.Title))
	b.WriteString("<div class=\"metadata\">\n")
	fmt.Fprintf(&b, "<p><strong>Topic:</strong> %s</p>\n", html.EscapeString(s.Topic))
	if strings.TrimSpace(s.Rules) != "" {
		fmt.Fprintf(&b, "<p><strong>Rules:</strong> %s</p>\n", html.EscapeString(s.Rules))
	}
	fmt.Fprintf(&b, "<p><strong>Date:</strong> %s</p>\n", timestamp(s.CreatedAt))
	if providerModel != "" {
		fmt.Fprintf(&b, "<p><strong>Provider/Model:</strong> %s</p>\n", html.EscapeString(providerModel))
	}
	b.WriteString("</div>\n")

	b.WriteString("<h2>Participants</h2>\n<ul>\n")
	for _, p := range participants {
		class := "participant"
		if p.Archived {
			class = "participant archived"
		}
		fmt.Fprintf(&b, "<li class=\"%s\"><strong>%s:</strong> %s</li>\n",
			class, html.EscapeString(displayName(p)), html.EscapeString(p.Position))
	}
	b.WriteString("</ul>\n")

	b.WriteString("<h2>Transcript</h2>\n")
	if len(turns) == 0 {
		b.WriteString("<p><em>No turns recorded.</em></p>\n")
	} else {
		for _, t := range turns {
			b.WriteString("<div class=\"turn\">\n")
			fmt.Fprintf(&b, "<div class=\"turn-header\">[%s] %s</div>\n",
				clock(t.CreatedAt), html.EscapeString(participantName(participants, t.ParticipantID)))
			fmt.Fprintf(&b, "<div class=\"turn-content\">%s</div>\n", html.EscapeString(t.Content))
			if t.IsIncomplete {
				b.WriteString("<div class=\"incomplete\">(Response incomplete)</div>\n")
			}
			b.WriteString("</div>\n")
		}
	}

	b.WriteString("<hr>\n")
	fmt.Fprintf(&b, "<p><em>Export generated on %s</em></p>\n", timestamp(time.Now().UnixMilli()))
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func toPlainText(s *store.Session, participants []store.Participant, turns []store.Turn, providerModel string) string {
	var b strings.Builder

	b.WriteString(s.Title + "\n")
	b.WriteString(strings.Repeat("=", len(s.Title)) + "\n\n")
	fmt.Fprintf(&b, "Topic: %s\n", s.Topic)
	if strings.TrimSpace(s.Rules) != "" {
		fmt.Fprintf(&b, "Rules: %s\n", s.Rules)
	}
	fmt.Fprintf(&b, "Date: %s\n", timestamp(s.CreatedAt))
	if providerModel != "" {
		fmt.Fprintf(&b, "Provider/Model: %s\n", providerModel)
	}

	b.WriteString("\nParticipants:\n")
	for _, p := range participants {
		fmt.Fprintf(&b, "  %s: %s\n", displayName(p), p.Position)
	}

	b.WriteString("\nTranscript\n----------\n\n")
	if len(turns) == 0 {
		b.WriteString("No turns recorded.\n")
	} else {
		for _, t := range turns {
			fmt.Fprintf(&b, "[%s] %s\n", clock(t.CreatedAt), participantName(participants, t.ParticipantID))
			b.WriteString(t.Content + "\n")
			if t.IsIncomplete {
				b.WriteString("(Response incomplete)\n")
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "Export generated on %s\n", timestamp(time.Now().UnixMilli()))
	return b.String()
}
