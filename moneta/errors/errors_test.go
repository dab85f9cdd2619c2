package errors_test

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/alecthomas/assert/v2"

	merrors "github.com/moneta/moneta/moneta/errors"
)

func TestError_MessageCarriesContext(t *testing.T) {
	_, cause := strconv.ParseInt("abc", 10, 64)
	err := merrors.InvalidKeyValue("abc", "account_number", "account", "/account/abc", cause)

	msg := err.Error()
	assert.Contains(t, msg, "invalid_key_value")
	assert.Contains(t, msg, "topic=account")
	assert.Contains(t, msg, "field=account_number")
	assert.Contains(t, msg, "value=abc")
	assert.Contains(t, msg, "path=/account/abc")
	assert.Contains(t, msg, "invalid syntax")

	assert.Equal(t, map[string]string{
		"topic": "account",
		"field": "account_number",
		"value": "abc",
		"path":  "/account/abc",
	}, err.Context())
}

func TestError_KindThroughWrapping(t *testing.T) {
	base := merrors.UnknownTopic("nope", "/nope")
	wrapped := fmt.Errorf("handling request: %w", base)

	kind, ok := merrors.KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, merrors.ErrUnknownTopic, kind)
	assert.True(t, merrors.IsKind(wrapped, merrors.ErrUnknownTopic))
	assert.False(t, merrors.IsKind(wrapped, merrors.ErrMissingTopic))

	_, ok = merrors.KindOf(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("disk gone")
	err := merrors.Wrap(merrors.ErrIO, "read config", cause)
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "io: read config: disk gone", err.Error())
}

func TestErrorKind_IsClientError(t *testing.T) {
	client := []merrors.ErrorKind{
		merrors.ErrMissingTopic,
		merrors.ErrUnknownTopic,
		merrors.ErrInvalidParameter,
		merrors.ErrUnconfiguredKey,
		merrors.ErrInvalidKeyValue,
	}
	for _, k := range client {
		assert.True(t, k.IsClientError(), "%s", k)
	}
	for _, k := range []merrors.ErrorKind{merrors.ErrConfig, merrors.ErrSQL, merrors.ErrIO, merrors.ErrCanceled} {
		assert.False(t, k.IsClientError(), "%s", k)
	}
}
