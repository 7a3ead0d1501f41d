// Package assistant turns BeeBot voice transcripts into app commands and
// narrates recommendation results.
package assistant

import (
	"fmt"
	"strings"

	"github.com/earningbee/bee-engine/internal/models"
)

// Action is what the client should do with a parsed command
type Action string

const (
	ActionNavigate Action = "navigate"
	ActionSearch   Action = "search"
	ActionSpeak    Action = "speak"
	ActionHelp     Action = "help"
)

const (
	Greeting = "Hello! I'm BeeBot, your smart earning advisor. I can help you navigate the app, " +
		"start searches, and speak your recommendations. Just click the microphone and tell me what you need!"
	HelpText = `I can help you navigate, start searches, or speak your recommendations. ` +
		`Try saying "go home", "start search", or "speak recommendations"`
	NoRecommendations = "No recommendations available. Please complete the earning input form first."
)

// Command is a parsed transcript
type Command struct {
	Transcript string `json:"transcript"`
	Action     Action `json:"action"`
	Route      string `json:"route,omitempty"`
	Speech     string `json:"speech"`
}

// VoiceCommandParser maps a transcript to a Command
type VoiceCommandParser interface {
	Parse(transcript string) Command
}

type rule struct {
	keywords []string
	action   Action
	route    string
	speech   string
}

// Rules are checked in order; the first rule with a keyword contained in
// the transcript wins. "speak" deliberately comes first, unlike the web
// assistant this replaces, which checked it last so that "speak
// recommendations" fell into the "recommend" search rule and could never
// be spoken. Every other rule keeps the web assistant's order.
var rules = []rule{
	{[]string{"speak"}, ActionSpeak, "", ""},
	{[]string{"home", "landing"}, ActionNavigate, "/", "Navigating to home page"},
	{[]string{"search", "find", "recommend"}, ActionSearch, "/input", "Starting your earning search"},
	{[]string{"input", "form"}, ActionNavigate, "/input", "Opening earning input form"},
	{[]string{"results", "recommendations"}, ActionNavigate, "/recommendations", "Showing your recommendations"},
	{[]string{"activity", "stats"}, ActionNavigate, "/activity", "Opening your activity dashboard"},
	{[]string{"about"}, ActionNavigate, "/about", "Opening about page"},
}

// KeywordParser matches lower-cased keyword substrings
type KeywordParser struct{}

// Parse resolves transcript. Speak commands carry no speech; the caller
// fills it in with Narrate.
func (KeywordParser) Parse(transcript string) Command {
	text := strings.ToLower(strings.TrimSpace(transcript))

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return Command{Transcript: transcript, Action: r.action, Route: r.route, Speech: r.speech}
			}
		}
	}

	return Command{Transcript: transcript, Action: ActionHelp, Speech: HelpText}
}

// Narrate reads results out in their current order
func Narrate(results []models.MatchResult) string {
	if len(results) == 0 {
		return NoRecommendations
	}

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("%d. %s in %s category, with potential earnings from %d to %d dollars per month",
			i+1, r.Method.Name, r.Method.Category, r.Method.MinEarning, r.Method.MaxEarning)
	}
	return "Here are your earning recommendations: " + strings.Join(parts, ". ")
}
