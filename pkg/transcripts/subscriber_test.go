package transcripts

import "testing"

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "single best",
			in:   `{"text" : "turn on the light"}`,
			want: "turn on the light",
		},
		{
			name: "alternatives",
			in:   `{"alternatives" : [{"confidence" : 203.4, "text" : "hello"}, {"confidence" : 180.1, "text" : "hallo"}]}`,
			want: "hello",
		},
		{
			name: "empty text",
			in:   `{"text" : ""}`,
			want: "",
		},
		{
			name: "partial only",
			in:   `{"partial" : "turn on"}`,
			want: "",
		},
		{
			name: "not json",
			in:   "garbage",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractText(tt.in); got != tt.want {
				t.Errorf("ExtractText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
