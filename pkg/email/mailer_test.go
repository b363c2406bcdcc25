package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/condokit/pkg/email"
)

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	valid := email.SendEmailParams{
		SendTo:   "sindico@condominio.com.br",
		Subject:  "Nova fatura",
		BodyHTML: "<p>fatura</p>",
	}

	tests := []struct {
		name   string
		mutate func(p *email.SendEmailParams)
		errMsg string
	}{
		{name: "valid", mutate: func(*email.SendEmailParams) {}},
		{name: "plus addressing", mutate: func(p *email.SendEmailParams) { p.SendTo = "adm+cobranca@sub.example.com" }},
		{name: "empty recipient", mutate: func(p *email.SendEmailParams) { p.SendTo = "  " }, errMsg: "SendTo is required"},
		{name: "malformed recipient", mutate: func(p *email.SendEmailParams) { p.SendTo = "user@" }, errMsg: "SendTo must be a valid email address"},
		{name: "missing local part", mutate: func(p *email.SendEmailParams) { p.SendTo = "@example.com" }, errMsg: "SendTo must be a valid email address"},
		{name: "empty subject", mutate: func(p *email.SendEmailParams) { p.Subject = " " }, errMsg: "Subject is required"},
		{name: "empty body", mutate: func(p *email.SendEmailParams) { p.BodyHTML = "" }, errMsg: "BodyHTML is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, email.ErrInvalidParams)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func readDir(t *testing.T, dir string) (html, meta string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".html"):
			html = filepath.Join(dir, e.Name())
		case strings.HasSuffix(e.Name(), ".json"):
			meta = filepath.Join(dir, e.Name())
		}
	}
	require.NotEmpty(t, html)
	require.NotEmpty(t, meta)
	return html, meta
}

func TestDevSender_SendEmail(t *testing.T) {
	t.Parallel()

	t.Run("writes body and metadata", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(dir)

		err := sender.SendEmail(context.Background(), email.SendEmailParams{
			SendTo:   "user@example.com",
			Subject:  "Nova fatura",
			BodyHTML: "<p>R$ 49,90</p>",
			Tag:      "invoice-generated",
		})
		require.NoError(t, err)

		htmlPath, metaPath := readDir(t, dir)
		assert.Contains(t, filepath.Base(htmlPath), "invoice-generated")

		body, err := os.ReadFile(htmlPath)
		require.NoError(t, err)
		assert.Equal(t, "<p>R$ 49,90</p>", string(body))

		raw, err := os.ReadFile(metaPath)
		require.NoError(t, err)
		var meta map[string]any
		require.NoError(t, json.Unmarshal(raw, &meta))
		assert.Equal(t, "user@example.com", meta["send_to"])
		assert.Equal(t, "Nova fatura", meta["subject"])
		assert.Equal(t, "invoice-generated", meta["tag"])
		assert.NotEmpty(t, meta["timestamp"])
	})

	t.Run("subject names the file when tag is empty", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		err := email.NewDevSender(dir).SendEmail(context.Background(), email.SendEmailParams{
			SendTo:   "user@example.com",
			Subject:  "Fatura Março!",
			BodyHTML: "<p>x</p>",
		})
		require.NoError(t, err)

		htmlPath, _ := readDir(t, dir)
		assert.True(t, strings.HasSuffix(filepath.Base(htmlPath), "_fatura_maro.html"), filepath.Base(htmlPath))
	})

	t.Run("creates nested directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "a", "b")
		err := email.NewDevSender(dir).SendEmail(context.Background(), email.SendEmailParams{
			SendTo:   "user@example.com",
			Subject:  "s",
			BodyHTML: "<p>x</p>",
		})
		require.NoError(t, err)
		readDir(t, dir)
	})

	t.Run("invalid params write nothing", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		err := email.NewDevSender(dir).SendEmail(context.Background(), email.SendEmailParams{SendTo: "nope"})
		require.ErrorIs(t, err, email.ErrInvalidParams)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := email.NewDevSender(t.TempDir()).SendEmail(ctx, email.SendEmailParams{
			SendTo:   "user@example.com",
			Subject:  "s",
			BodyHTML: "<p>x</p>",
		})
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
	})
}
