// pkg/anonymizer/anonymizer.go
package anonymizer

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pulsemetrics/feature-ingress/pkg/model"
)

const (
	// TokenLength is the hex length identifier tokens are truncated to.
	TokenLength = 16

	// Placeholder is the only content string ever exposed to users.
	Placeholder = "[MESSAGE CONTENT REDACTED FOR PRIVACY]"

	// SentinelEmail is returned for malformed email input.
	SentinelEmail = "anonymous@unknown.com"

	// SentinelName is returned for empty name input.
	SentinelName = "Anonymous"

	namePrefix = "User_"
)

// Anonymizer deterministically transforms identifying values into
// privacy-safe surrogates. All tokens are keyed digests, so the same input
// under the same key always yields the same token.
type Anonymizer struct {
	key    []byte
	store  ContentStore
	logger *zap.Logger
}

// New creates an Anonymizer. The privacy key is required: every token
// depends on it, so failing here beats silently hashing with a wrong key.
func New(key string, store ContentStore, logger *zap.Logger) (*Anonymizer, error) {
	if key == "" {
		return nil, errors.New("privacy key cannot be empty")
	}
	if store == nil {
		return nil, errors.New("content store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Anonymizer{
		key:    []byte(key),
		store:  store,
		logger: logger.Named("anonymizer"),
	}, nil
}

// HashIdentifier returns a deterministic keyed digest of an identifier,
// truncated to TokenLength hex characters.
func (a *Anonymizer) HashIdentifier(identifier string) string {
	mac := hmac.New(sha256.New, a.key)
	mac.Write([]byte(identifier))
	return hex.EncodeToString(mac.Sum(nil))[:TokenLength]
}

// AnonymizeEmail pseudonymizes an email address while preserving the domain
// and a short local-part prefix for domain-level analytics:
//
//	jane.doe@example.com -> jane_a3f5@example.com
//
// Malformed input yields SentinelEmail rather than an error, so one bad
// address can never abort a batch.
func (a *Anonymizer) AnonymizeEmail(email string) string {
	if email == "" || !strings.Contains(email, "@") {
		return SentinelEmail
	}

	local, domain, _ := strings.Cut(email, "@")
	prefix := local
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}

	suffix := a.HashIdentifier(email)[:4]
	return fmt.Sprintf("%s_%s@%s", prefix, suffix, domain)
}

// AnonymizeName replaces a person name with a deterministic surrogate:
//
//	John Doe -> User_a3f51b2c
func (a *Anonymizer) AnonymizeName(name string) string {
	if name == "" {
		return SentinelName
	}
	return namePrefix + a.HashIdentifier(name)[:8]
}

// AnonymizeContent transforms free text into an AnonymizedContent: a fixed
// placeholder, privacy-safe derived features, and an opaque handle under
// which the original text is stored for the trusted consumer. Empty input
// returns zero features and an empty handle without touching the store.
//
// Handles are content-derived, so re-anonymizing identical text is an
// idempotent store write.
func (a *Anonymizer) AnonymizeContent(ctx context.Context, text string) (model.AnonymizedContent, error) {
	if text == "" {
		return model.AnonymizedContent{Placeholder: Placeholder}, nil
	}

	handle := a.HashIdentifier(text)

	if err := a.store.Put(ctx, handle, ContentEntry{
		Content:    text,
		CapturedAt: time.Now().UTC(),
	}); err != nil {
		return model.AnonymizedContent{}, fmt.Errorf("failed to store content for handle %s: %w", handle, err)
	}

	return model.AnonymizedContent{
		Placeholder: Placeholder,
		Features:    deriveFeatures(text),
		Handle:      handle,
	}, nil
}

// deriveFeatures computes the statistically useful signals that are safe to
// expose alongside the placeholder.
func deriveFeatures(text string) model.ContentFeatures {
	words := strings.Fields(text)

	var totalWordLen int
	for _, w := range words {
		totalWordLen += len(w)
	}

	avgWordLen := 0.0
	if len(words) > 0 {
		avgWordLen = float64(totalWordLen) / float64(len(words))
	}

	return model.ContentFeatures{
		Length:         len(text),
		WordCount:      len(words),
		HasQuestion:    strings.Contains(text, "?"),
		HasExclamation: strings.Contains(text, "!"),
		HasEmoji:       containsEmoji(text),
		AvgWordLength:  avgWordLen,
	}
}

// containsEmoji reports whether the text carries at least one rune in the
// common emoji blocks.
func containsEmoji(text string) bool {
	for _, r := range text {
		switch {
		case r >= 0x1F300 && r <= 0x1FAFF: // pictographs, emoticons, symbols
			return true
		case r >= 0x2600 && r <= 0x27BF: // misc symbols and dingbats
			return true
		}
	}
	return false
}
