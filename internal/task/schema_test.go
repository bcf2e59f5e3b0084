package task

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateJSON(t *testing.T) {
	valid, err := json.Marshal(validTask())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "marshaled task", raw: string(valid)},
		{
			name: "null tags and due date",
			raw:  `{"id":"a","title":"x","status":"done","priority":"low","createdAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z","dueDate":null,"tags":null}`,
		},
		{
			name:    "unknown status",
			raw:     `{"id":"a","title":"x","status":"blocked","priority":"low","createdAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z"}`,
			wantErr: true,
		},
		{
			name:    "whitespace title",
			raw:     `{"id":"a","title":"   ","status":"todo","priority":"low","createdAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z"}`,
			wantErr: true,
		},
		{
			name:    "missing timestamps",
			raw:     `{"id":"a","title":"x","status":"todo","priority":"low"}`,
			wantErr: true,
		},
		{
			name:    "bad date",
			raw:     `{"id":"a","title":"x","status":"todo","priority":"low","createdAt":"yesterday","updatedAt":"2026-01-01T00:00:00Z"}`,
			wantErr: true,
		},
		{name: "not an object", raw: `[1,2]`, wantErr: true},
		{name: "malformed", raw: `{"id":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("expected a ValidationError in %v", err)
				}
			}
		})
	}
}
