package engine

import "testing"

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"bare object", `{"reply":"hi"}`, `{"reply":"hi"}`, true},
		{"prose wrapped", "Sure, here you go:\n{\"reply\":\"hi\"}\nHope that helps!", `{"reply":"hi"}`, true},
		{"code fence", "```json\n{\"reply\":\"hi\"}\n```", `{"reply":"hi"}`, true},
		{"brace inside string", `{"reply":"use {braces} here"}`, `{"reply":"use {braces} here"}`, true},
		{"escaped quote inside string", `{"reply":"she said \"}\" loudly"}`, `{"reply":"she said \"}\" loudly"}`, true},
		{"nested object", `{"reply":"x","extra":{"a":1}}`, `{"reply":"x","extra":{"a":1}}`, true},
		{"no object", "I will not answer in JSON today.", "", false},
		{"unterminated", `{"reply":"hi"`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONObject(tt.input)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRepairReplyControlChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"literal newline escaped",
			"{\"reply\":\"hey\nthere\"}",
			`{"reply":"hey\nthere"}`,
		},
		{
			"tab and carriage return escaped",
			"{\"reply\":\"a\tb\rc\"}",
			`{"reply":"a\tb\rc"}`,
		},
		{
			"already escaped newline untouched",
			`{"reply":"hey\nthere"}`,
			`{"reply":"hey\nthere"}`,
		},
		{
			"escaped quote does not end the value",
			"{\"reply\":\"say \\\"hi\nthere\\\"\"}",
			`{"reply":"say \"hi\nthere\""}`,
		},
		{
			"whitespace between key and value",
			"{ \"reply\" : \"one\ntwo\" }",
			"{ \"reply\" : \"one\\ntwo\" }",
		},
		{
			"no reply key",
			"{\"adminCommand\":\"kickUser\"}",
			"{\"adminCommand\":\"kickUser\"}",
		},
		{
			"structural whitespace preserved",
			"{\n  \"reply\": \"ok\",\n  \"adminCommand\": \"\"\n}",
			"{\n  \"reply\": \"ok\",\n  \"adminCommand\": \"\"\n}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repairReplyControlChars(tt.input); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
