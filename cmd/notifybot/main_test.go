package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completeConfig = `
telegram_bot_token: "123456:TEST-token"
authorized_user: "alice"
pup: "Stadtwerke"
pup_mail: "service@stadtwerke.example"
own_mail: "alice@example.com"
own_mail_nm: "Alice Example"
own_mail_pw: "app-password"
bcc_mail: "alice+copy@example.com"
sal_mail: "Dear Sir or Madam,"
lea_mail: "Kind regards"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCheckConfig_Valid(t *testing.T) {
	path := writeConfig(t, completeConfig)

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"check-config", "--config", path}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "is valid")
	assert.NotContains(t, stdout.String(), "warning")
}

func TestCheckConfig_MissingOptionalWarns(t *testing.T) {
	path := writeConfig(t, `
telegram_bot_token: "123456:TEST-token"
authorized_user: "alice"
pup_mail: "service@stadtwerke.example"
own_mail: "alice@example.com"
own_mail_pw: "app-password"
`)

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"check-config", "--config", path}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "warning: bcc_mail")
	assert.Contains(t, stdout.String(), "authorization is disabled")
}

func TestCheckConfig_MissingRequired(t *testing.T) {
	path := writeConfig(t, `authorized_user: "alice"`)

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"check-config", "--config", path}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "telegram_bot_token")
}

func TestRun_MissingConfigFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "absent.yml")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}

func TestExecute_RejectsArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"unexpected"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}
