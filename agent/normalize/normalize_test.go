package normalize

import "testing"

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain object untouched",
			raw:  `{"type":"wait"}`,
			want: `{"type":"wait"}`,
		},
		{
			name: "json fence",
			raw:  "```json\n{\"type\":\"wait\"}\n```",
			want: `{"type":"wait"}`,
		},
		{
			name: "bare fence",
			raw:  "```\n{\"type\":\"dig\",\"x\":1,\"y\":2,\"z\":3}\n```",
			want: `{"type":"dig","x":1,"y":2,"z":3}`,
		},
		{
			name: "fence without closing",
			raw:  "```json\n{\"type\":\"wait\"}",
			want: `{"type":"wait"}`,
		},
		{
			name: "doubled escaped quotes",
			raw:  `chat(message=\\'hello\\')`,
			want: `chat(message='hello')`,
		},
		{
			name: "doubled escaped double quotes",
			raw:  `{\\"type\\": \\"wait\\"}`,
			want: `{"type": "wait"}`,
		},
		{
			name: "json string escapes preserved",
			raw:  `{"type":"chat","message":"say \"hi\" to them"}`,
			want: `{"type":"chat","message":"say \"hi\" to them"}`,
		},
		{
			name: "surrounding whitespace",
			raw:  "  \n {\"type\":\"wait\"} \n ",
			want: `{"type":"wait"}`,
		},
		{
			name: "multiline array preserved",
			raw:  "```json\n[\n {\"type\":\"wait\"},\n {\"type\":\"clearControlStates\"}\n]\n```",
			want: "[\n {\"type\":\"wait\"},\n {\"type\":\"clearControlStates\"}\n]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.raw); got != tt.want {
				t.Fatalf("Strip(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "single line",
			raw:  `moveTo(x=1, y=64, z=-3)`,
			want: `moveTo(x=1, y=64, z=-3)`,
		},
		{
			name: "action followed by explanation",
			raw:  "collect oak_log\nI will gather wood so we can craft planks.",
			want: "collect oak_log",
		},
		{
			name: "leading blank lines skipped",
			raw:  "\n\n  \nwait(ticks=40)\nmore text",
			want: "wait(ticks=40)",
		},
		{
			name: "fenced single action",
			raw:  "```json\n{\"type\":\"wait\"}\n```",
			want: `{"type":"wait"}`,
		},
		{
			name: "empty input",
			raw:  "   \n  ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Line(tt.raw); got != tt.want {
				t.Fatalf("Line(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
