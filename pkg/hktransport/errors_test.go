package hktransport

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := newError(KindRateLimited, "arrivals", nil)

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrNetwork)

	wrapped := fmt.Errorf("poll: %w", err)
	assert.ErrorIs(t, wrapped, ErrRateLimited)
}

func TestErrorUnwrapsCause(t *testing.T) {
	err := newError(KindNetwork, "stations", context.DeadlineExceeded)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "hktransport: stations: network connection failed, please try again later: context deadline exceeded", err.Error())
}

func TestLocalized(t *testing.T) {
	tests := []struct {
		kind Kind
		lang string
		want string
	}{
		{KindNetwork, "en", "network connection failed, please try again later"},
		{KindNetwork, "zh-HK", "網絡連線失敗，請稍後再試"},
		{KindInvalidResponse, "", "received an invalid response from the server"},
		{KindRateLimited, "ZH_tw", "請求過於頻繁，請稍後再試"},
		{KindNotFound, "fr", "no matching transport data was found"},
		{KindNotFound, "zh", "找不到相關交通資料"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.lang, func(t *testing.T) {
			assert.Equal(t, tt.want, newError(tt.kind, "", nil).Localized(tt.lang))
		})
	}
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(fmt.Errorf("outer: %w", notFound("arrivals", "stop", "X")))
	require.True(t, ok)
	assert.Equal(t, KindNotFound, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}
