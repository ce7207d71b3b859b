package authsvc_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/homecase-todo/internal/domain"
	"github.com/mkrupp/homecase-todo/internal/svc/authsvc"
)

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	hasher := authsvc.NewBcryptHasher(bcrypt.MinCost)

	first, err := hasher.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	second, err := hasher.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if bytes.Equal(first, second) {
		t.Error("Hash() produced identical digests, salt not applied")
	}

	if bytes.Contains(first, []byte("secret1")) {
		t.Error("Hash() leaked the plaintext")
	}

	tests := []struct {
		name      string
		plaintext string
		digest    []byte
		want      bool
	}{
		{name: "matching password", plaintext: "secret1", digest: first, want: true},
		{name: "matching second digest", plaintext: "secret1", digest: second, want: true},
		{name: "wrong password", plaintext: "wrongpass", digest: first, want: false},
		{name: "empty password", plaintext: "", digest: first, want: false},
		{name: "malformed digest", plaintext: "secret1", digest: []byte("plain"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := hasher.Verify(tt.plaintext, tt.digest); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBcryptHasher_TooLong(t *testing.T) {
	t.Parallel()

	_, err := authsvc.NewBcryptHasher(bcrypt.MinCost).Hash(strings.Repeat("a", 73))
	if !errors.Is(err, domain.ErrPasswordTooLong) {
		t.Errorf("Hash() error = %v, want %v", err, domain.ErrPasswordTooLong)
	}
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	t.Parallel()

	if got := authsvc.NewBcryptHasher(0).Cost; got != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", got, bcrypt.DefaultCost)
	}

	if got := authsvc.NewBcryptHasher(99).Cost; got != bcrypt.MaxCost {
		t.Errorf("cost = %d, want %d", got, bcrypt.MaxCost)
	}
}
