package redact

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringRedactsBotToken(t *testing.T) {
	in := `Post "https://api.telegram.org/bot123456:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw/sendMessage": dial tcp: timeout`
	out := String(in)

	assert.NotContains(t, out, "AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw")
	assert.Contains(t, out, "/bot"+Placeholder)
	// The rest of the message survives.
	assert.Contains(t, out, "dial tcp: timeout")
}

func TestStringRedactsConnectionString(t *testing.T) {
	out := String("failed to connect to postgres://downbeat:s3cret@db:5432/downbeat")

	assert.NotContains(t, out, "s3cret")
	assert.Contains(t, out, "postgres://"+Placeholder+"@")
	assert.Contains(t, out, "db:5432/downbeat")
}

func TestStringRedactsTokenQueryParams(t *testing.T) {
	out := String("GET http://navidrome:4533/rest/startScan?c=MusicDownloader&s=c19b2d&t=26719a1196d2a940705a59634eb18eab&u=admin: 401")

	assert.NotContains(t, out, "26719a1196d2a940705a59634eb18eab")
	assert.NotContains(t, out, "c19b2d")
	assert.Contains(t, out, "u=admin")
}

func TestStringRedactsCredentialAssignments(t *testing.T) {
	out := String(`config validation failed: password="hunter22" too short`)

	assert.NotContains(t, out, "hunter22")
}

func TestStringLeavesPlainTextAlone(t *testing.T) {
	in := "album not found: alb-9"
	assert.Equal(t, in, String(in))
}

func TestError(t *testing.T) {
	assert.Empty(t, Error(nil))
	assert.NotContains(t, Error(errors.New("postgres://u:p@host/db refused")), ":p@")
}
