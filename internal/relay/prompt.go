package relay

import (
	"fmt"
	"regexp"
	"strings"
)

// Prompt is the system instruction plus the user's message.
type Prompt struct {
	System string
	User   string
}

const openingTemplate = `You are FocusBot, a helpful tutor for %[1]s. Start by greeting the user warmly and briefly introducing yourself as their %[1]s tutor. Then ask how you can help them with %[1]s today. Keep it friendly and encouraging.`

const scopedTemplate = `You are FocusBot, a helpful tutor specialized in %[1]s. Your role is to help students with %[1]s-related topics, staying strictly within the context of %[1]s. If a student asks about topics unrelated to %[1]s, politely redirect them to %[1]s topics and suggest relevant %[1]s questions they could ask instead. Always be encouraging and helpful, even when redirecting. Answer %[1]s questions clearly and briefly.`

// BuildPrompt binds the tutor persona to subject. A conversation that has not
// started yet gets the greeting variant.
func BuildPrompt(subject, message string, conversationStarted bool) Prompt {
	tmpl := scopedTemplate
	if !conversationStarted {
		tmpl = openingTemplate
	}
	return Prompt{
		System: fmt.Sprintf(tmpl, subject),
		User:   message,
	}
}

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// CleanReply strips reasoning blocks some models emit before the answer.
func CleanReply(raw string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(raw, ""))
}

var redirectPhrases = []string{
	"apologize", "sorry", "currently focused", "unrelated", "redirect",
	"instead", "related to", "focused on",
}

// IsRedirect reports whether the tutor declined an off-subject question.
// Such replies are shown but never saved to history.
func IsRedirect(reply string) bool {
	lowered := strings.ToLower(reply)
	for _, p := range redirectPhrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}
