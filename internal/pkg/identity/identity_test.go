package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticResolverVerify(t *testing.T) {
	resolver := NewStaticResolver(map[string]string{
		"tok-one": "subj-1",
		"tok-two": "subj-2",
	})

	subject, err := resolver.Verify(context.Background(), "tok-one")
	require.NoError(t, err)
	assert.Equal(t, "subj-1", subject)

	subject, err = resolver.Verify(context.Background(), "  tok-two  ")
	require.NoError(t, err)
	assert.Equal(t, "subj-2", subject)
}

func TestStaticResolverRejects(t *testing.T) {
	resolver := NewStaticResolver(map[string]string{"tok-one": "subj-1"})

	tests := []struct {
		name  string
		token string
	}{
		{"unknown token", "tok-unknown"},
		{"empty token", ""},
		{"whitespace token", "   "},
		{"prefix of a valid token", "tok-on"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := resolver.Verify(context.Background(), tc.token)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestStaticResolverNilTable(t *testing.T) {
	resolver := NewStaticResolver(nil)
	_, err := resolver.Verify(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
