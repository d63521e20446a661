package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectDerivation(t *testing.T) {
	p := &Publisher{stream: "SIGNAWARE_EVENTS", subjectPrefix: "signaware.events"}

	assert.Equal(t, "signaware.events.USER_LOGIN", p.subject("USER_LOGIN"))
	assert.Equal(t, "signaware.events.DOCUMENT_ANALYZED", p.subject("DOCUMENT_ANALYZED"))
}
