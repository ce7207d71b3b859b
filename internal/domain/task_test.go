package domain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/mkrupp/homecase-todo/internal/domain"
)

func TestNormalizeTaskContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
		wantErr error
	}{
		{"trimmed", "  Buy milk \n", "Buy milk", nil},
		{"empty", "", "", domain.ErrEmptyContent},
		{"whitespace only", " \t\n ", "", domain.ErrEmptyContent},
		{"at limit counts runes", strings.Repeat("ü", domain.MaxTaskContentLength), strings.Repeat("ü", domain.MaxTaskContentLength), nil},
		{"over limit", strings.Repeat("x", domain.MaxTaskContentLength+1), "", domain.ErrContentTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := domain.NormalizeTaskContent(tt.content)
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Fatalf("NormalizeTaskContent() error = %v, want %v", err, tt.wantErr)
			}

			if got != tt.want {
				t.Errorf("NormalizeTaskContent() = %q, want %q", got, tt.want)
			}
		})
	}
}
