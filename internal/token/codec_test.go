package token

import (
	"testing"
	"time"

	"github.com/rendis/intake/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState() *State {
	return &State{
		Interview: "registration",
		Seed:      map[string]any{"event": "gophercon"},
		History: schema.AnswerHistory{
			{Question: "name", Values: map[string]any{"first_name": "Ada", "last_name": "Lovelace"}},
			{Question: "email", Values: map[string]any{"email": "ada@example.com"}},
		},
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c, err := NewCodec([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	tok, err := c.Encode(testState())
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	st, err := c.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, "registration", st.Interview)
	assert.Equal(t, map[string]any{"event": "gophercon"}, st.Seed)
	require.Len(t, st.History, 2)
	assert.Equal(t, "name", st.History[0].Question)
	assert.Equal(t, "Ada", st.History[0].Values["first_name"])
}

func TestNewCodec_EmptySecret(t *testing.T) {
	_, err := NewCodec(nil, time.Hour)
	require.Error(t, err)
}

func TestCodec_TamperDetection(t *testing.T) {
	c, err := NewCodec([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	tok, err := c.Encode(testState())
	require.NoError(t, err)

	// Flipping any single byte of a valid token must yield an integrity
	// error on decode.
	for i := 0; i < len(tok); i++ {
		mutated := []byte(tok)
		mutated[i] ^= 0x01
		if string(mutated) == tok {
			continue
		}
		_, err := c.Decode(string(mutated))
		require.Errorf(t, err, "byte %d flip went undetected", i)
		assert.Equal(t, schema.ErrCodeIntegrity, schema.CodeOf(err))
	}
}

func TestCodec_WrongSecret(t *testing.T) {
	c1, err := NewCodec([]byte("secret-one"), time.Hour)
	require.NoError(t, err)
	c2, err := NewCodec([]byte("secret-two"), time.Hour)
	require.NoError(t, err)

	tok, err := c1.Encode(testState())
	require.NoError(t, err)

	_, err = c2.Decode(tok)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeIntegrity, schema.CodeOf(err))
}

func TestCodec_Expiry(t *testing.T) {
	c, err := NewCodec([]byte("test-secret"), time.Nanosecond)
	require.NoError(t, err)

	tok, err := c.Encode(testState())
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = c.Decode(tok)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeIntegrity, schema.CodeOf(err))
	assert.Contains(t, err.(*schema.InterviewError).Message, "expired")
}

func TestCodec_Garbage(t *testing.T) {
	c, err := NewCodec([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := c.Decode(tok)
		require.Error(t, err)
		assert.Equal(t, schema.ErrCodeIntegrity, schema.CodeOf(err))
	}
}

func TestCodec_EmptyHistoryDecodesNonNil(t *testing.T) {
	c, err := NewCodec([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	tok, err := c.Encode(&State{Interview: "registration"})
	require.NoError(t, err)

	st, err := c.Decode(tok)
	require.NoError(t, err)
	assert.NotNil(t, st.History)
	assert.Empty(t, st.History)
}
