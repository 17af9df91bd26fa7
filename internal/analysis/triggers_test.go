package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchTriggers(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		categories []string
	}{
		{"interrogative", "what is going on here", []string{"interrogative"}},
		{"excitement", "this is absolutely INSANE", []string{"excitement"}},
		{"controversy", "the truth they kept hidden", []string{"controversy", "controversy"}},
		{"action", "watch and see for yourself", []string{"action", "action"}},
		{"numeric list", "here are 5 ways to save money", []string{"numeric_list"}},
		{"call to action", "subscribe and share", []string{"call_to_action", "call_to_action"}},
		{"no partial words", "somewhat sharing wowed", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := MatchTriggers(tt.text)
			require.Len(t, matches, len(tt.categories))
			for i, m := range matches {
				assert.Equal(t, tt.categories[i], m.Category)
			}
		})
	}
}

func TestTriggerWeights(t *testing.T) {
	m := MatchTriggers("amazing")
	require.Len(t, m, 1)
	assert.Equal(t, 0.90, m[0].Weight)

	m = MatchTriggers("subscribe")
	require.Len(t, m, 1)
	assert.Equal(t, 0.60, m[0].Weight)
}

func TestContainsHookTrigger(t *testing.T) {
	assert.True(t, ContainsHookTrigger("what happens next"))
	assert.True(t, ContainsHookTrigger("an unbelievable story"))
	assert.True(t, ContainsHookTrigger("imagine this"))
	assert.False(t, ContainsHookTrigger("the quick brown fox"))
	assert.False(t, ContainsHookTrigger("subscribe to the channel"))
}
