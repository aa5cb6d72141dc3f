// Package intent classifies caller utterances into banking intents and
// extracts the slots the handlers need (transfer amount, counterparty,
// QR amount).
//
// Classification is keyword-based: an utterance matches the first intent
// whose keyword list contains a substring of the lowercased text, checked
// in a fixed order so "transfer my balance" routes to write, not read. A
// secondary fuzzy pass compares individual spoken tokens to single-word
// keywords with Jaro-Winkler similarity, which tolerates the misspellings
// speech transcription tends to produce ("transfur", "ballance"). Exact
// containment always wins over a fuzzy hit.
package intent

import (
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
)

// Intent is a routing category for one caller utterance.
type Intent string

const (
	// Write covers money movement: transfers and payments.
	Write Intent = "write"

	// Read covers account lookups: balance and transaction history.
	Read Intent = "read"

	// Offers covers product questions answered from the offers corpus.
	Offers Intent = "offers"

	// Complaint covers problem reports.
	Complaint Intent = "complaint"

	// QR covers merchant payment QR code requests.
	QR Intent = "qr"

	// General is the fallback for everything else.
	General Intent = "general"
)

// fuzzyThreshold is the minimum Jaro-Winkler score for a transcribed
// token to count as a single-word keyword.
const fuzzyThreshold = 0.88

// rules are checked in order; the first match wins across both passes.
var rules = []struct {
	intent   Intent
	keywords []string
}{
	{Write, []string{"transfer", "send money", "pay", "move"}},
	{Read, []string{"how much", "balance", "last transactions", "transactions"}},
	{Offers, []string{"offer", "card", "loan", "savings", "what do you have"}},
	{Complaint, []string{"complaint", "issue", "problem", "fraud report"}},
	{QR, []string{"qr", "qr code", "merchant"}},
}

// Classify maps an utterance to an Intent. Unmatched text is General.
func Classify(text string) Intent {
	lt := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lt, kw) {
				return r.intent
			}
		}
	}

	// Fuzzy pass over individual tokens. Multi-word phrases stay
	// exact-only: token-level similarity on short function words like
	// "how" or "do" produces junk matches.
	tokens := strings.Fields(lt)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.ContainsRune(kw, ' ') || len(kw) < 4 {
				continue
			}
			for _, tok := range tokens {
				if matchr.JaroWinkler(tok, kw, false) >= fuzzyThreshold {
					return r.intent
				}
			}
		}
	}
	return General
}

// Transfer holds the slots parsed from a write utterance.
type Transfer struct {
	Amount       float64
	Counterparty string
}

// ParseTransfer extracts an amount and counterparty from text like
// "transfer 50 to bob". The heuristics are deliberately simple demo
// behaviour and never fail:
//   - amount: the token after "transfer", 10.0 when that token is not a
//     number, 0.0 when there is no "transfer" token at all;
//   - counterparty: the token after "to", "merchant" when absent.
func ParseTransfer(text string) Transfer {
	tr := Transfer{Amount: 0, Counterparty: "merchant"}
	tokens := strings.Fields(strings.ToLower(text))

	for i, tok := range tokens {
		if tok == "transfer" {
			if i+1 < len(tokens) {
				amt, err := strconv.ParseFloat(tokens[i+1], 64)
				if err != nil {
					amt = 10.0
				}
				tr.Amount = amt
			}
			break
		}
	}
	for i, tok := range tokens {
		if tok == "to" {
			if i+1 < len(tokens) {
				tr.Counterparty = tokens[i+1]
			}
			break
		}
	}
	return tr
}

// ParseQRAmount extracts the first numeric token from a QR utterance,
// allowing one decimal point ("qr for 12.50"). Returns 0.0 when no token
// is numeric.
func ParseQRAmount(text string) float64 {
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		stripped := strings.Replace(tok, ".", "", 1)
		if stripped == "" {
			continue
		}
		if isDigits(stripped) {
			amt, err := strconv.ParseFloat(tok, 64)
			if err == nil {
				return amt
			}
		}
	}
	return 0
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
