package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	assert.Equal(t, "💵 Bid for Gaming PC & co:", PlainText("💵 Bid for <b>Gaming PC &amp; co</b>:"))
	assert.Equal(t, "Main Menu", PlainText("  <i>Main Menu</i>\n"))
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;x&lt;/b&gt;", EscapeHTML("<b>x</b>"))
	assert.Equal(t, "<b>a &amp; b</b>", Bold("a & b"))
}

func TestPrice(t *testing.T) {
	assert.Equal(t, "$1,299.50", Price(1299.5))
	assert.Equal(t, "$0.00", Price(0))
	assert.Equal(t, "12.00", Number(12))
}

func TestDeref(t *testing.T) {
	assert.Equal(t, "n/a", DerefString(nil, "n/a"))
	assert.Equal(t, "n/a", DerefString(Ptr(""), "n/a"))
	assert.Equal(t, "x", DerefString(Ptr("x"), "n/a"))
	assert.Equal(t, 3, DerefInt(Ptr(3), 0))
	assert.Equal(t, 7, DerefInt(nil, 7))
}
