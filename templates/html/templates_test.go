package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderEscapesInput(t *testing.T) {
	out := RenderNewAnswerEmail("alice", "<b>q</b>", "<script>x</script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<script>x")

	assert.Contains(t, RenderNewOrderEmail("shop", "abc", 12345), "123.45")
	assert.Contains(t, RenderGenericEmail("Hi", "a\nb"), "a<br>b")
	assert.Contains(t, RenderAgencyWelcomeEmail("A & B"), "A &amp; B")
}
