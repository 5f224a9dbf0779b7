package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      string
		withTrace bool
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: errors.New("element not found: .b-rating"), want: "element not found: .b-rating"},
		{
			name:      "webdriver style trace",
			err:       errors.New("no such element: Unable to locate element Stacktrace:\n#0 0x55d3 <unknown>"),
			want:      "no such element: Unable to locate element",
			withTrace: true,
		},
		{
			name:      "goroutine dump",
			err:       errors.New("panic: boom\n\ngoroutine 7 [running]:\nmain.main()"),
			want:      "panic: boom",
			withTrace: true,
		},
		{name: "multi line keeps the first", err: errors.New("click failed\nsecond line"), want: "click failed"},
		{name: "only trace", err: errors.New("Stacktrace: #0"), want: "unexpected error", withTrace: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
			assert.Equal(t, tt.withTrace, HasStackTrace(tt.err))
		})
	}
}
