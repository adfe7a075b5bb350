package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("fetch page: %w", newError(KindWebAPI, ErrorKindPrivateProfile, 403, "inventory is private"))

	assert.ErrorIs(t, err, ErrPrivateProfile)
	assert.NotErrorIs(t, err, ErrTransient)
	assert.NotErrorIs(t, err, ErrInvalidCredential)
}

func TestError_Temporary(t *testing.T) {
	assert.True(t, newError(KindSteamApis, ErrorKindTransient, 503, "").Temporary())
	for _, k := range []ErrorKind{ErrorKindInvalidInput, ErrorKindPrivateProfile, ErrorKindInvalidCredential,
		ErrorKindMalformedResponse, ErrorKindTransport, ErrorKindProvider} {
		assert.False(t, newError(KindSteamApis, k, 0, "").Temporary(), k)
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "full",
			err:  &Error{Kind: ErrorKindProvider, Provider: KindCommunity, StatusCode: 500, Message: "Failure (2)"},
			want: "community provider (status 500): Failure (2)",
		},
		{
			name: "wrapped",
			err:  &Error{Kind: ErrorKindTransport, Provider: KindWebAPI, Message: "request failed", Err: errors.New("dial tcp")},
			want: "webapi transport: request failed: dial tcp",
		},
		{
			name: "kind only",
			err:  ErrMalformedResponse,
			want: "malformed_response: malformed_response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestProviderError_EResult(t *testing.T) {
	assert.Equal(t, 2, providerError(KindCommunity, 500, "Failure (2)").EResult)
	assert.Equal(t, 15, providerError(KindCommunity, 403, "Access Denied (15) ").EResult)
	assert.Zero(t, providerError(KindCommunity, 500, "boom").EResult)
}
