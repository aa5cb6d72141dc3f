package intent

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()
	cases := []struct {
		text string
		want Intent
	}{
		{"transfer 50 to bob", Write},
		{"I want to send money to my sister", Write},
		{"please pay my electricity bill", Write},
		{"how much do I have?", Read},
		{"what's my balance", Read},
		{"show me my last transactions", Read},
		{"do you have any offers on a credit card", Offers},
		{"tell me about savings accounts", Offers},
		{"I have a problem with my account", Complaint},
		{"I want to file a fraud report", Complaint},
		{"give me a qr code for 20", QR},
		{"I need a merchant code", QR},
		{"what time is it", General},
		{"", General},
		// Order of the rules: money movement wins over lookups.
		{"transfer my whole balance", Write},
	}
	for _, tc := range cases {
		if got := Classify(tc.text); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestClassifyFuzzy(t *testing.T) {
	t.Parallel()
	cases := []struct {
		text string
		want Intent
	}{
		// Transcription misspellings of single-word keywords.
		{"transfur 20 to alice", Write},
		{"what is my ballance", Read},
		{"any offres today", Offers},
	}
	for _, tc := range cases {
		if got := Classify(tc.text); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestParseTransfer(t *testing.T) {
	t.Parallel()
	cases := []struct {
		text   string
		amount float64
		to     string
	}{
		{"transfer 50 to bob", 50, "bob"},
		{"transfer 12.75 to alice", 12.75, "alice"},
		{"transfer everything to bob", 10, "bob"},
		{"send money to carol", 0, "carol"},
		{"transfer 50", 50, "merchant"},
		{"pay the electric bill", 0, "merchant"},
		{"transfer", 0, "merchant"},
	}
	for _, tc := range cases {
		got := ParseTransfer(tc.text)
		if got.Amount != tc.amount || got.Counterparty != tc.to {
			t.Errorf("ParseTransfer(%q) = %+v, want amount=%v to=%q",
				tc.text, got, tc.amount, tc.to)
		}
	}
}

func TestParseQRAmount(t *testing.T) {
	t.Parallel()
	cases := []struct {
		text string
		want float64
	}{
		{"qr code for 20", 20},
		{"qr for 12.50 please", 12.5},
		{"make me a qr code", 0},
		{"qr 1.2.3 units", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := ParseQRAmount(tc.text); got != tc.want {
			t.Errorf("ParseQRAmount(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
