package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
)

//go:embed messages/*.json
var messagesFS embed.FS

// Supported locales
const (
	LocalePortuguese = "pt-BR"
	LocaleEnglish    = "en"
	DefaultLocale    = LocalePortuguese
)

type localeKey struct{}

// catalogues holds every message flattened to its dot key, per locale
var (
	catalogues     map[string]map[string]string
	cataloguesOnce sync.Once
)

func loadCatalogues() {
	cataloguesOnce.Do(func() {
		catalogues = make(map[string]map[string]string)
		for _, locale := range []string{LocalePortuguese, LocaleEnglish} {
			data, err := messagesFS.ReadFile("messages/" + locale + ".json")
			if err != nil {
				continue
			}
			var tree map[string]interface{}
			if err := json.Unmarshal(data, &tree); err != nil {
				continue
			}
			flat := make(map[string]string)
			flatten("", tree, flat)
			catalogues[locale] = flat
		}
	})
}

func flatten(prefix string, tree map[string]interface{}, into map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := v.(type) {
		case string:
			into[key] = v
		case map[string]interface{}:
			flatten(key, v, into)
		}
	}
}

// Keys lists the message keys of a locale, sorted
func Keys(locale string) []string {
	loadCatalogues()
	keys := make([]string, 0, len(catalogues[locale]))
	for k := range catalogues[locale] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Localizer translates keys for one locale, falling back to pt-BR
type Localizer struct {
	locale string
}

func NewLocalizer(locale string) *Localizer {
	loadCatalogues()
	return &Localizer{locale: Normalize(locale)}
}

// Normalize maps a locale tag onto a supported locale.
// "pt", "pt-br" and "pt_BR" all become pt-BR; anything English becomes en.
func Normalize(locale string) string {
	if l, ok := match(locale); ok {
		return l
	}
	return DefaultLocale
}

func match(tag string) (string, bool) {
	l := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
	switch {
	case strings.HasPrefix(l, "en"):
		return LocaleEnglish, true
	case strings.HasPrefix(l, "pt"):
		return LocalePortuguese, true
	case l == "*":
		return DefaultLocale, true
	default:
		return "", false
	}
}

func LocalizerFromContext(ctx context.Context) *Localizer {
	return NewLocalizer(GetLocaleFromContext(ctx))
}

// T translates key, replacing {name} placeholders from params.
// Unknown keys come back unchanged.
func (l *Localizer) T(key string, params ...map[string]string) string {
	msg, ok := catalogues[l.locale][key]
	if !ok {
		msg, ok = catalogues[DefaultLocale][key]
	}
	if !ok {
		return key
	}
	if len(params) > 0 {
		for k, v := range params[0] {
			msg = strings.ReplaceAll(msg, "{"+k+"}", v)
		}
	}
	return msg
}

// WithLocale adds locale to context
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// GetLocaleFromContext retrieves locale from context
func GetLocaleFromContext(ctx context.Context) string {
	if locale, ok := ctx.Value(localeKey{}).(string); ok && locale != "" {
		return locale
	}
	return DefaultLocale
}

// ParseAcceptLanguage picks the supported locale with the highest weight.
// Equal weights keep header order; q=0 ranges are refused.
func ParseAcceptLanguage(header string) string {
	best, bestQ := DefaultLocale, 0.0
	for _, part := range strings.Split(header, ",") {
		tag, params, _ := strings.Cut(part, ";")
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			q = parsed
		}
		locale, ok := match(tag)
		if !ok || q <= 0 || q <= bestQ {
			continue
		}
		best, bestQ = locale, q
	}
	return best
}

// T translates using the default locale
func T(key string, params ...map[string]string) string {
	return NewLocalizer(DefaultLocale).T(key, params...)
}

// TWithLocale translates using the specified locale
func TWithLocale(locale, key string, params ...map[string]string) string {
	return NewLocalizer(locale).T(key, params...)
}

// TFromContext translates using locale from context
func TFromContext(ctx context.Context, key string, params ...map[string]string) string {
	return LocalizerFromContext(ctx).T(key, params...)
}
