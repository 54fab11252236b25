package conversation //nolint:testpackage // white-box test needs internal access

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain reply untouched",
			in:   "Bitcoin is trading at $67,000.",
			want: "Bitcoin is trading at $67,000.",
		},
		{
			name: "strips tool narration",
			in: "I'll search the web for that:\n" +
				"[Tool: web_search]\n" +
				"Using the calendar tool to look it up\n" +
				"Your next meeting is at 3pm.",
			want: "Your next meeting is at 3pm.",
		},
		{
			name: "strips tool markup lines",
			in:   "<function_calls>\n<invoke name=\"search\">\n</function_calls>\nDone.",
			want: "Done.",
		},
		{
			name: "collapses duplicate lines",
			in:   "Hello.\nHello.\n\n\n\nBye.",
			want: "Hello.\n\nBye.",
		},
		{
			name: "normalizes CRLF and trailing space",
			in:   "one  \r\ntwo\r\n",
			want: "one\ntwo",
		},
		{
			name: "keeps ordinary sentences that mention searching",
			in:   "Searching for a flat takes time. I can help.",
			want: "Searching for a flat takes time. I can help.",
		},
		{
			name: "narration only yields empty",
			in:   "Fetching results...\nObservation: 3 hits",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := "Let me check the news...\nMarkets are up.\nMarkets are up.\n\n\nRates unchanged."
	once := Normalize(in)
	if twice := Normalize(once); twice != once {
		t.Errorf("Normalize not idempotent: %q -> %q", once, twice)
	}
}
