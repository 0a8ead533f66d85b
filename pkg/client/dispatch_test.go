package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReplyPlain(t *testing.T) {
	r := ParseReply("File created.\n")
	assert.Equal(t, ReplyPlain, r.Kind)
	assert.Equal(t, "File created.", r.Text)
}

func TestParseReplyError(t *testing.T) {
	r := ParseReply("ERROR;404;file not found\n")
	assert.Equal(t, ReplyError, r.Kind)
	assert.Contains(t, r.Text, "404")
}

func TestParseReplyRedirectRead(t *testing.T) {
	r := ParseReply("REDIRECT_READ;127.0.0.1;9001;a.txt\n")
	assert.Equal(t, ReplyRedirectRead, r.Kind)
	assert.Equal(t, "127.0.0.1", r.SSIP)
	assert.Equal(t, 9001, r.SSPort)
	assert.Equal(t, "a.txt", r.Filename)
}

func TestParseReplyRedirectWrite(t *testing.T) {
	r := ParseReply("REDIRECT_WRITE;127.0.0.1;9001;a.txt;3\n")
	assert.Equal(t, ReplyRedirectWrite, r.Kind)
	assert.Equal(t, 3, r.Sentence)
}

func TestParseReplyMalformedRedirect(t *testing.T) {
	r := ParseReply("REDIRECT_READ;127.0.0.1\n")
	assert.Equal(t, ReplyError, r.Kind)
}
