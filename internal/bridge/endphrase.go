package bridge

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// DefaultEndPhrases are the utterances that end a call when spoken.
var DefaultEndPhrases = []string{"goodbye", "hang up", "end call", "that's all"}

// endPhraseThreshold is the minimum Jaro-Winkler score for a fuzzy
// end-phrase hit. Transcription often splits or mangles the phrase
// ("good bye", "hangup"), so exact containment alone is not enough.
const endPhraseThreshold = 0.92

// isEndPhrase reports whether text contains one of the end phrases,
// exactly or by fuzzy match against one- and two-token windows.
func isEndPhrase(text string, phrases []string) bool {
	lt := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lt, p) {
			return true
		}
	}

	tokens := strings.Fields(lt)
	for _, p := range phrases {
		collapsed := strings.ReplaceAll(p, " ", "")
		collapsed = strings.ReplaceAll(collapsed, "'", "")
		for i, tok := range tokens {
			if matchr.JaroWinkler(tok, collapsed, false) >= endPhraseThreshold {
				return true
			}
			if i+1 < len(tokens) {
				pair := tok + tokens[i+1]
				if matchr.JaroWinkler(pair, collapsed, false) >= endPhraseThreshold {
					return true
				}
			}
		}
	}
	return false
}
