package hktransport

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a transport API failure
type Kind string

const (
	KindNetwork         Kind = "network"
	KindInvalidResponse Kind = "invalid_response"
	KindRateLimited     Kind = "rate_limited"
	KindNotFound        Kind = "not_found"
)

// Sentinels for errors.Is checks against a kind
var (
	ErrNetwork         = &Error{Kind: KindNetwork}
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse}
	ErrRateLimited     = &Error{Kind: KindRateLimited}
	ErrNotFound        = &Error{Kind: KindNotFound}
)

// Error is returned by every Client method that fails
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("hktransport")
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
	b.WriteString(messages[e.Kind].en)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrRateLimited) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

type message struct {
	en string
	zh string
}

var messages = map[Kind]message{
	KindNetwork:         {en: "network connection failed, please try again later", zh: "網絡連線失敗，請稍後再試"},
	KindInvalidResponse: {en: "received an invalid response from the server", zh: "伺服器回應無效"},
	KindRateLimited:     {en: "too many requests, please try again later", zh: "請求過於頻繁，請稍後再試"},
	KindNotFound:        {en: "no matching transport data was found", zh: "找不到相關交通資料"},
}

// Localized returns the user-facing message for lang. Any "zh" language tag
// gets traditional Chinese; everything else gets English.
func (e *Error) Localized(lang string) string {
	m, ok := messages[e.Kind]
	if !ok {
		m = messages[KindInvalidResponse]
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(lang)), "zh") {
		return m.zh
	}
	return m.en
}

// KindOf extracts the Kind of err, if it is or wraps an *Error
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func notFound(op, what, id string) *Error {
	return newError(KindNotFound, op, fmt.Errorf("%s %q", what, id))
}
