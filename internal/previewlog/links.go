package previewlog

// Language identifies the documentation language of a preview link.
type Language string

const (
	English Language = "en"
	Chinese Language = "zh_CN"
)

// Entry is one parsed preview line.
type Entry struct {
	Series   string
	Language Language
	URL      string
	Line     int
}

// Links aggregates preview URLs per chip series and language. Series keep the
// order of their first appearance; a repeated (series, language) pair replaces
// the earlier URL without moving the series.
type Links struct {
	order []string
	urls  map[string]map[Language]string
}

// NewLinks returns an empty aggregate.
func NewLinks() *Links {
	return &Links{urls: make(map[string]map[Language]string)}
}

// Add records e, overwriting any earlier URL for the same series and language.
func (l *Links) Add(e Entry) {
	langs, ok := l.urls[e.Series]
	if !ok {
		langs = make(map[Language]string, 2)
		l.urls[e.Series] = langs
		l.order = append(l.order, e.Series)
	}
	langs[e.Language] = e.URL
}

// Series returns chip series in first-appearance order.
func (l *Links) Series() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// URL returns the link for series and language, if any.
func (l *Links) URL(series string, lang Language) (string, bool) {
	u, ok := l.urls[series][lang]
	return u, ok
}

// Len returns the number of distinct series.
func (l *Links) Len() int { return len(l.order) }
