package pipeline

import "testing"

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{
			name: "plain object",
			raw:  `{"type":"expense","amount":50}`,
			want: `{"type":"expense","amount":50}`,
			ok:   true,
		},
		{
			name: "json fence",
			raw:  "```json\n{\"amount\": 10}\n```",
			want: `{"amount": 10}`,
			ok:   true,
		},
		{
			name: "surrounding prose",
			raw:  `Sure! Here it is: {"amount": 10, "meta": {"a": 1}} hope that helps`,
			want: `{"amount": 10, "meta": {"a": 1}}`,
			ok:   true,
		},
		{
			name: "no object",
			raw:  "I could not find a transaction.",
			ok:   false,
		},
		{
			name: "closing before opening",
			raw:  "} nothing {",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cleanModelJSON(tt.raw)
			if ok != tt.ok {
				t.Fatalf("cleanModelJSON() ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("cleanModelJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}
