package news

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"NewsSentinel/internal/model"
)

// Field defaults applied when a feed item omits them.
const (
	DefaultHeadline = "No Headline"
	DefaultSource   = "Unknown"
)

// zone-less layouts are interpreted in the caller's clock location.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// NormalizeFeed converts a news feed payload of any known shape into canonical
// articles. Accepted shapes: a bare list, {"news": [...]}, {"news": {id: item}},
// {"data": [...]} and {"data": {"news": ...}}. Unknown shapes yield no articles.
func NormalizeFeed(raw []byte, now time.Time) []model.NewsArticle {
	if !gjson.ValidBytes(raw) {
		return nil
	}
	items := feedItems(gjson.ParseBytes(raw))

	out := make([]model.NewsArticle, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		out = append(out, normalizeItem(item, now))
	}
	return out
}

func feedItems(root gjson.Result) []gjson.Result {
	switch {
	case root.IsArray():
		return root.Array()
	case root.IsObject():
		if n := root.Get("news"); n.Exists() {
			return collection(n)
		}
		if d := root.Get("data"); d.Exists() {
			if d.IsObject() && d.Get("news").Exists() {
				return collection(d.Get("news"))
			}
			return collection(d)
		}
	}
	return nil
}

// collection flattens a list, or the values of an id-keyed object.
func collection(v gjson.Result) []gjson.Result {
	if v.IsArray() {
		return v.Array()
	}
	if v.IsObject() {
		var items []gjson.Result
		v.ForEach(func(_, value gjson.Result) bool {
			items = append(items, value)
			return true
		})
		return items
	}
	return nil
}

func normalizeItem(item gjson.Result, now time.Time) model.NewsArticle {
	a := model.NewsArticle{
		ID:        item.Get("id").String(),
		Headline:  stringOr(item.Get("headline"), DefaultHeadline),
		Source:    stringOr(item.Get("source"), DefaultSource),
		Summary:   item.Get("summary").String(),
		URL:       item.Get("url").String(),
		CreatedAt: parseTime(item.Get("created_at"), now),
	}

	for _, s := range item.Get("symbols").Array() {
		if sym := strings.TrimSpace(s.String()); sym != "" {
			a.Symbols = append(a.Symbols, sym)
		}
	}
	if len(a.Symbols) > 0 {
		a.Symbol = a.Symbols[0]
	} else {
		a.Symbol = model.UnknownSymbol
	}
	return a
}

func stringOr(v gjson.Result, def string) string {
	if !v.Exists() || v.Type == gjson.Null {
		return def
	}
	if s := v.String(); s != "" {
		return s
	}
	return def
}

func parseTime(v gjson.Result, now time.Time) time.Time {
	switch v.Type {
	case gjson.Number:
		return time.Unix(v.Int(), 0).In(now.Location())
	case gjson.String:
		s := strings.TrimSpace(v.String())
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
				return t
			}
		}
	}
	return now
}
