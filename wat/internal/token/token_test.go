package token

import (
	"slices"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			"empty",
			"",
			nil,
		},
		{
			"parens",
			"()",
			[]Token{{"(", LParen, 1}, {")", RParen, 1}},
		},
		{
			"module",
			"(module)",
			[]Token{{"(", LParen, 1}, {"module", Keyword, 1}, {")", RParen, 1}},
		},
		{
			"newlines",
			"(\nmodule\n)",
			[]Token{{"(", LParen, 1}, {"module", Keyword, 2}, {")", RParen, 3}},
		},
		{
			"identifier",
			"$start",
			[]Token{{"$start", ID, 1}},
		},
		{
			"mnemonic",
			"i32.div_s",
			[]Token{{"i32.div_s", Keyword, 1}},
		},
		{
			"numbers",
			"42 -1 0xFF 1_000 +7 -0x80000000",
			[]Token{
				{"42", Number, 1}, {"-1", Number, 1}, {"0xFF", Number, 1},
				{"1_000", Number, 1}, {"+7", Number, 1}, {"-0x80000000", Number, 1},
			},
		},
		{
			"float",
			"1.5e-3 -inf nan:0x1",
			[]Token{{"1.5e-3", Number, 1}, {"-inf", Number, 1}, {"nan:0x1", Keyword, 1}},
		},
		{
			"adjacent_paren",
			"(i32.const 1)",
			[]Token{{"(", LParen, 1}, {"i32.const", Keyword, 1}, {"1", Number, 1}, {")", RParen, 1}},
		},
		{
			"string",
			`"run"`,
			[]Token{{"run", String, 1}},
		},
		{
			"line_comment",
			"drop ;; ignored (\nend",
			[]Token{{"drop", Keyword, 1}, {"end", Keyword, 2}},
		},
		{
			"nested_block_comment",
			"drop (; outer (; inner ;)\n still ;) end",
			[]Token{{"drop", Keyword, 1}, {"end", Keyword, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize: %v", err)
			}
			if !slices.Equal(got, tt.expected) {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		line    int
		wantMsg string
	}{
		{"unterminated_comment", "(module\n(; open", 2, "unterminated block comment"},
		{"unterminated_string", `"abc`, 1, "unterminated string"},
		{"newline_in_string", "\"ab\ncd\"", 1, "newline in string"},
		{"empty_id", "$ x", 1, "empty identifier"},
		{"bad_char", "\n\n#", 3, "unexpected character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			lexErr, ok := err.(*Error)
			if !ok {
				t.Fatalf("error type %T, want *Error", err)
			}
			if lexErr.Line != tt.line {
				t.Errorf("line = %d, want %d", lexErr.Line, tt.line)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q missing %q", err, tt.wantMsg)
			}
		})
	}
}

func TestTokenString(t *testing.T) {
	if got := (Token{Value: "(", Type: LParen}).String(); got != "'('" {
		t.Errorf("LParen = %q", got)
	}
	if got := (Token{Value: "$f", Type: ID}).String(); got != `identifier "$f"` {
		t.Errorf("ID = %q", got)
	}
}
