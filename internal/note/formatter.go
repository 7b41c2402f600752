package note

import (
	"strings"

	"git.home.luguber.info/inful/previewnote/internal/config"
	"git.home.luguber.info/inful/previewnote/internal/previewlog"
)

// Formatter renders aggregated preview links as a markdown note.
type Formatter struct {
	Header       string
	ChineseLabel string
	EnglishLabel string
	Products     Products
}

// NewFormatter builds a Formatter from note configuration.
func NewFormatter(cfg config.NoteConfig) *Formatter {
	return &Formatter{
		Header:       cfg.Header,
		ChineseLabel: cfg.Labels.Chinese,
		EnglishLabel: cfg.Labels.English,
		Products:     NewProducts(cfg.Products),
	}
}

// DefaultFormatter uses the built-in header, labels and product table.
func DefaultFormatter() *Formatter {
	return NewFormatter(config.Default().Note)
}

// Format renders the header followed by one bullet per chip series, e.g.
//
//	- ESP32-S3 [勘误表](https://host/zh_CN/esp32s3/)/[Errata](https://host/en/esp32s3/)
//
// A language without a URL is rendered as its plain label.
func (f *Formatter) Format(links *previewlog.Links) string {
	var b strings.Builder
	b.WriteString(f.Header)
	b.WriteString("\n\n")
	if links == nil {
		return b.String()
	}

	for _, series := range links.Series() {
		b.WriteString("- ")
		b.WriteString(f.Products.Name(series))
		b.WriteByte(' ')
		writeLink(&b, f.ChineseLabel, links, series, previewlog.Chinese)
		b.WriteByte('/')
		writeLink(&b, f.EnglishLabel, links, series, previewlog.English)
		b.WriteByte('\n')
	}
	return b.String()
}

func writeLink(b *strings.Builder, label string, links *previewlog.Links, series string, lang previewlog.Language) {
	u, ok := links.URL(series, lang)
	if !ok {
		b.WriteString(label)
		return
	}
	b.WriteByte('[')
	b.WriteString(label)
	b.WriteString("](")
	b.WriteString(u)
	b.WriteByte(')')
}
