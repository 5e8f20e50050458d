package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "  Leaking faucet  ", want: "Leaking faucet"},
		{name: "tags", in: "<b>Leak</b> under <i>sink</i>", want: "Leak under sink"},
		{name: "encoded tags", in: "&lt;script&gt;alert(1)&lt;/script&gt;ok", want: "alert(1)ok"},
		{name: "spaces", in: "water   \t on floor", want: "water on floor"},
		{name: "paragraphs", in: "line one  \r\n\r\n\r\n\r\n  line two", want: "line one\n\nline two"},
		{name: "ampersand", in: "Tom &amp; Jerry", want: "Tom & Jerry"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Text(tc.in))
		})
	}
}

func TestTextPtr(t *testing.T) {
	assert.Nil(t, TextPtr(nil))

	blank := " <p></p> "
	assert.Nil(t, TextPtr(&blank))

	note := "<p>Replaced valve</p>"
	got := TextPtr(&note)
	if assert.NotNil(t, got) {
		assert.Equal(t, "Replaced valve", *got)
	}
}
