package consume

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		text    string
		verdict Verdict
	}{
		{
			name:    "plain line",
			payload: []byte("hello"),
			text:    "hello",
			verdict: VerdictAccept,
		},
		{
			name:    "empty payload",
			payload: []byte{},
			text:    "",
			verdict: VerdictAccept,
		},
		{
			name:    "utf-8 multibyte",
			payload: []byte("héllo wörld"),
			text:    "héllo wörld",
			verdict: VerdictAccept,
		},
		{
			name:    "embedded newline",
			payload: []byte("foo\nbar"),
			text:    "foo\nbar",
			verdict: VerdictRejectNewline,
		},
		{
			name:    "trailing newline",
			payload: []byte("foo\n"),
			text:    "foo\n",
			verdict: VerdictRejectNewline,
		},
		{
			name:    "invalid utf-8",
			payload: []byte{0xff, 0xfe, 0xfd},
			text:    "",
			verdict: VerdictRejectParseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, v := Classify(tt.payload)
			assert.Equal(t, tt.verdict, v)
			assert.Equal(t, tt.text, text)
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	payloads := [][]byte{
		[]byte("alpha"),
		[]byte("foo\nbar"),
		{0xc3, 0x28},
	}

	for _, p := range payloads {
		text1, v1 := Classify(p)
		text2, v2 := Classify(p)
		assert.Equal(t, v1, v2)
		assert.Equal(t, text1, text2)
	}
}
