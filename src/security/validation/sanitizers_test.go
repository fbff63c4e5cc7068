package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "hello world", StripUnprintable("hello\x00 world\x1b"))
	assert.Equal(t, "keeps\ttabs\nand newlines", StripUnprintable("keeps\ttabs\nand newlines"))
}

func TestSanitizeForFormulaInjection(t *testing.T) {
	assert.Equal(t, "'=SUM(A1:A9)", SanitizeForFormulaInjection("=SUM(A1:A9)"))
	assert.Equal(t, "'+1234", SanitizeForFormulaInjection("+1234"))
	assert.Equal(t, "plain text", SanitizeForFormulaInjection("plain text"))
}
