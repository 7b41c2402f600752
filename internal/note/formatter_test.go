package note

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/previewnote/internal/config"
	"git.home.luguber.info/inful/previewnote/internal/previewlog"
)

func linksFrom(t *testing.T, lines ...string) *previewlog.Links {
	t.Helper()
	res, err := previewlog.Scan(strings.NewReader(strings.Join(lines, "\n")), previewlog.Options{Strict: true})
	require.NoError(t, err)
	return res.Links
}

func TestFormat_BothLanguages(t *testing.T) {
	links := linksFrom(t,
		"[document preview][en_esp32s3][http://x/en]",
		"[document preview][zh_CN_esp32s3][http://x/zh]",
	)

	got := DefaultFormatter().Format(links)
	assert.Equal(t, "Documentation preview:\n\n- ESP32-S3 [勘误表](http://x/zh)/[Errata](http://x/en)\n", got)
}

func TestFormat_EnglishOnly(t *testing.T) {
	links := linksFrom(t, "[document preview][en_esp32c3][http://x/en]")

	got := DefaultFormatter().Format(links)
	assert.Contains(t, got, "- ESP32-C3 勘误表/[Errata](http://x/en)\n")
}

func TestFormat_ChineseOnly(t *testing.T) {
	links := linksFrom(t, "[document preview][zh_CN_esp32h2][http://x/zh]")

	got := DefaultFormatter().Format(links)
	assert.Contains(t, got, "- ESP32-H2 [勘误表](http://x/zh)/Errata\n")
}

func TestFormat_OrderAndUnknownSeries(t *testing.T) {
	links := linksFrom(t,
		"[document preview][en_esp32p4][http://x/p4]",
		"[document preview][en_esp32c6][http://x/c6]",
		"[document preview][zh_CN_esp32p4][http://x/p4zh]",
	)

	got := DefaultFormatter().Format(links)
	want := "Documentation preview:\n\n" +
		"- ESP32P4 [勘误表](http://x/p4zh)/[Errata](http://x/p4)\n" +
		"- ESP32-C6 勘误表/[Errata](http://x/c6)\n"
	assert.Equal(t, want, got)
}

func TestFormat_EmptyIsHeaderOnly(t *testing.T) {
	f := DefaultFormatter()
	assert.Equal(t, "Documentation preview:\n\n", f.Format(previewlog.NewLinks()))
	assert.Equal(t, "Documentation preview:\n\n", f.Format(nil))
}

func TestFormat_Idempotent(t *testing.T) {
	links := linksFrom(t,
		"[document preview][en_esp32s2][http://x/s2]",
		"[document preview][zh_CN_esp32s3][http://x/s3]",
	)
	f := DefaultFormatter()
	assert.Equal(t, f.Format(links), f.Format(links))
}

func TestFormat_ConfiguredLabelsAndProducts(t *testing.T) {
	cfg := config.Default().Note
	cfg.Header = "Docs:"
	cfg.Labels = config.Labels{Chinese: "中文", English: "English"}
	cfg.Products = map[string]string{"esp32p4": "ESP32-P4", "esp32s3": "ESP32-S3 (rev)"}

	links := linksFrom(t,
		"[document preview][en_esp32p4][http://x/p4]",
		"[document preview][en_esp32s3][http://x/s3]",
	)
	got := NewFormatter(cfg).Format(links)
	assert.Equal(t, "Docs:\n\n- ESP32-P4 中文/[English](http://x/p4)\n- ESP32-S3 (rev) 中文/[English](http://x/s3)\n", got)
}

func TestProductName(t *testing.T) {
	tests := map[string]string{
		"esp32s2": "ESP32-S2",
		"esp32s3": "ESP32-S3",
		"esp32c3": "ESP32-C3",
		"esp32c6": "ESP32-C6",
		"esp32h2": "ESP32-H2",
		"esp32p4": "ESP32P4",
		"esp32":   "ESP32",
	}
	for series, want := range tests {
		assert.Equal(t, want, ProductName(series), series)
	}
}

func TestNewProductsDoesNotMutateBuiltins(t *testing.T) {
	p := NewProducts(map[string]string{"esp32s2": "custom"})
	assert.Equal(t, "custom", p.Name("esp32s2"))
	assert.Equal(t, "ESP32-S2", ProductName("esp32s2"))
}
