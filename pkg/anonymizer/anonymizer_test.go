package anonymizer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAnonymizer(t *testing.T, key string) (*Anonymizer, *MemoryStore) {
	t.Helper()

	store := NewMemoryStore()
	anon, err := New(key, store, zap.NewNop())
	require.NoError(t, err)
	return anon, store
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New("", NewMemoryStore(), zap.NewNop())
	require.Error(t, err)
}

func TestNew_RequiresStoreAndLogger(t *testing.T) {
	_, err := New("key", nil, zap.NewNop())
	require.Error(t, err)

	_, err = New("key", NewMemoryStore(), nil)
	require.Error(t, err)
}

func TestHashIdentifier_Deterministic(t *testing.T) {
	anon, _ := newTestAnonymizer(t, "key-1")

	first := anon.HashIdentifier("user-42")
	second := anon.HashIdentifier("user-42")

	assert.Equal(t, first, second)
	assert.Len(t, first, TokenLength)
}

func TestHashIdentifier_KeyDependent(t *testing.T) {
	anon1, _ := newTestAnonymizer(t, "key-1")
	anon2, _ := newTestAnonymizer(t, "key-2")

	assert.NotEqual(t, anon1.HashIdentifier("user-42"), anon2.HashIdentifier("user-42"))
}

func TestHashIdentifier_DistinctInputs(t *testing.T) {
	anon, _ := newTestAnonymizer(t, "key-1")

	assert.NotEqual(t, anon.HashIdentifier("alice"), anon.HashIdentifier("bob"))
}

func TestAnonymizeEmail_PreservesDomainAndPrefix(t *testing.T) {
	anon, _ := newTestAnonymizer(t, "key-1")

	pseudo := anon.AnonymizeEmail("jane.doe@example.com")

	assert.True(t, strings.HasPrefix(pseudo, "jane_"))
	assert.True(t, strings.HasSuffix(pseudo, "@example.com"))
	assert.NotContains(t, pseudo, "jane.doe@")
}

func TestAnonymizeEmail_Deterministic(t *testing.T) {
	anon, _ := newTestAnonymizer(t, "key-1")

	first := anon.AnonymizeEmail("jane.doe@example.com")
	second := anon.AnonymizeEmail("jane.doe@example.com")

	assert.Equal(t, first, second)
}

func TestAnonymizeEmail_MalformedInput(t *testing.T) {
	anon, _ := newTestAnonymizer(t, "key-1")

	assert.Equal(t, SentinelEmail, anon.AnonymizeEmail("not-an-email"))
	assert.Equal(t, SentinelEmail, anon.AnonymizeEmail(""))
}

func TestAnonymizeEmail_ShortLocalPart(t *testing.T) {
	anon, _ := newTestAnonymizer(t, "key-1")

	pseudo := anon.AnonymizeEmail("jd@example.com")
	assert.True(t, strings.HasPrefix(pseudo, "jd_"))
	assert.True(t, strings.HasSuffix(pseudo, "@example.com"))
}

func TestAnonymizeName(t *testing.T) {
	anon, _ := newTestAnonymizer(t, "key-1")

	surrogate := anon.AnonymizeName("John Doe")
	assert.True(t, strings.HasPrefix(surrogate, "User_"))
	assert.Len(t, surrogate, len("User_")+8)
	assert.Equal(t, surrogate, anon.AnonymizeName("John Doe"))

	assert.Equal(t, SentinelName, anon.AnonymizeName(""))
}

func TestAnonymizeContent_HidesOriginalText(t *testing.T) {
	anon, _ := newTestAnonymizer(t, "key-1")
	ctx := context.Background()

	text := "Can we ship the quarterly report tomorrow?"
	content, err := anon.AnonymizeContent(ctx, text)
	require.NoError(t, err)

	assert.Equal(t, Placeholder, content.Placeholder)
	assert.NotContains(t, content.Placeholder, "quarterly")
	assert.Len(t, content.Handle, TokenLength)

	assert.Equal(t, len(text), content.Features.Length)
	assert.Equal(t, 7, content.Features.WordCount)
	assert.True(t, content.Features.HasQuestion)
	assert.False(t, content.Features.HasExclamation)
	assert.False(t, content.Features.HasEmoji)
	assert.InDelta(t, 5.0, content.Features.AvgWordLength, 0.5)
}

func TestAnonymizeContent_EmptyInput(t *testing.T) {
	anon, store := newTestAnonymizer(t, "key-1")

	content, err := anon.AnonymizeContent(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, Placeholder, content.Placeholder)
	assert.Empty(t, content.Handle)
	assert.Zero(t, content.Features.Length)
	assert.Zero(t, content.Features.WordCount)
	assert.Equal(t, 0, store.Len())
}

func TestAnonymizeContent_EmojiDetection(t *testing.T) {
	anon, _ := newTestAnonymizer(t, "key-1")

	content, err := anon.AnonymizeContent(context.Background(), "great work \U0001F389")
	require.NoError(t, err)
	assert.True(t, content.Features.HasEmoji)
}

func TestAnonymizeContent_IdenticalTextSharesHandle(t *testing.T) {
	anon, store := newTestAnonymizer(t, "key-1")
	ctx := context.Background()

	first, err := anon.AnonymizeContent(ctx, "same message")
	require.NoError(t, err)
	second, err := anon.AnonymizeContent(ctx, "same message")
	require.NoError(t, err)

	assert.Equal(t, first.Handle, second.Handle)
	assert.Equal(t, 1, store.Len())
}

func TestTrustedReader_RoundTrip(t *testing.T) {
	anon, store := newTestAnonymizer(t, "key-1")
	ctx := context.Background()

	text := "the original message body"
	content, err := anon.AnonymizeContent(ctx, text)
	require.NoError(t, err)

	reader, err := NewTrustedReader(store, zap.NewNop())
	require.NoError(t, err)

	resolved, err := reader.Resolve(ctx, content.Handle)
	require.NoError(t, err)
	assert.Equal(t, text, resolved)
}

func TestTrustedReader_Miss(t *testing.T) {
	reader, err := NewTrustedReader(NewMemoryStore(), zap.NewNop())
	require.NoError(t, err)

	_, err = reader.Resolve(context.Background(), "deadbeefdeadbeef")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = reader.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}
