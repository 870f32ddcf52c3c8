package restli

import "fmt"

// LocalizedString extracts a display string from a LinkedIn profile field.
// The API returns such fields in one of two shapes: a plain string, or a
// localized map of the form
//
//	{"localized": {"en_US": "..."}, "preferredLocale": {"language": "en", "country": "US"}}
//
// The preferred locale's value wins when present; otherwise the first
// non-empty localized value is used. Returns ok=false when the field is
// absent or holds no usable value.
func LocalizedString(field any) (value string, ok bool) {
	switch v := field.(type) {
	case nil:
		return "", false
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case map[string]any:
		localized, _ := v["localized"].(map[string]any)
		if len(localized) == 0 {
			return "", false
		}

		if preferred, ok := v["preferredLocale"].(map[string]any); ok {
			language, _ := preferred["language"].(string)
			country, _ := preferred["country"].(string)
			key := fmt.Sprintf("%s_%s", language, country)
			if s, ok := localized[key].(string); ok && s != "" {
				return s, true
			}
		}

		for _, candidate := range localized {
			if s, ok := candidate.(string); ok && s != "" {
				return s, true
			}
		}
		return "", false
	default:
		return "", false
	}
}
