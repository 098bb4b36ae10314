// Package intent classifies free-text transcripts into device intents by
// keyword matching, in English and French.
package intent

import (
	"strings"

	"github.com/careloop/kiosk/domain/entities"
)

var yesWords = []string{
	// English
	"yes", "yeah", "yep", "done", "okay", "ok", "sure", "taken", "did",
	// French
	"oui", "ouais", "ouaip", "d'accord", "bien sûr", "volontiers", "avec plaisir", "super", "parfait",
}

var noWords = []string{
	// English
	"no", "nope", "not", "haven't", "didn't",
	// French
	"non", "nan", "pas maintenant", "merci non", "pas envie",
}

var laterWords = []string{"later", "wait", "minute", "soon", "remind", "after", "plus tard", "après", "tantôt"}

var helpWords = []string{"help", "contact", "call", "notify", "caregiver", "someone", "aide", "appelle", "aidant"}

var exerciseWords = []string{"exercise", "activity", "workout", "quiz", "game", "exercice", "jeu", "quiz"}

var playWords = []string{"message", "play", "listen", "audio", "music", "musique", "chanson", "livre", "joue"}

// orderedLists fixes the classification priority. A transcript containing
// words from two lists resolves to the first-tested category; this
// precedence is part of the contract and must not be reordered.
var orderedLists = []struct {
	words  []string
	intent entities.SpeechIntent
}{
	{yesWords, entities.IntentYes},
	{noWords, entities.IntentNo},
	{laterWords, entities.IntentLater},
	{helpWords, entities.IntentHelp},
	{exerciseWords, entities.IntentExercise},
	{playWords, entities.IntentPlayMessage},
}

// Classify maps a raw transcript to a coarse intent. Pure function: no
// side effects, no I/O.
func Classify(transcript string) entities.SpeechIntent {
	lower := strings.ToLower(transcript)
	for _, list := range orderedLists {
		for _, w := range list.words {
			if strings.Contains(lower, w) {
				return list.intent
			}
		}
	}
	return entities.IntentUnknown
}
