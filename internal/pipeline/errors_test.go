package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInvalidInput, KindOf(Errorf(KindInvalidInput, "bad url")))
	assert.Equal(t, KindStorage, KindOf(fmt.Errorf("upload: %w", Errorf(KindStorage, "put failed"))))
	// Unclassified errors stay retryable.
	assert.Equal(t, KindExternalTool, KindOf(errors.New("boom")))
}

func TestUnretriable(t *testing.T) {
	assert.True(t, Unretriable(Errorf(KindInvalidInput, "bad url")))
	assert.True(t, Unretriable(Errorf(KindDataIntegrity, "segment gone")))
	assert.False(t, Unretriable(Errorf(KindExternalTool, "exit 1")))
	assert.False(t, Unretriable(Errorf(KindTimeout, "deadline")))
	assert.False(t, Unretriable(errors.New("unknown")))
}

func TestUserMessageTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	msg := UserMessage(errors.New(long))
	assert.Len(t, msg, 200)

	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "short", UserMessage(errors.New("short")))
}
