package cache

import (
	"strconv"

	language "github.com/hanpama/groupfeed/internal/language"
)

// KeyFunc derives the natural key of an object. ok is false when the object
// does not carry the key.
type KeyFunc func(obj map[string]any) (key string, ok bool)

// IdentityRule binds a key function to one typename.
type IdentityRule struct {
	Typename string
	Key      KeyFunc
}

// KeyField returns a KeyFunc reading a single scalar field.
func KeyField(name string) KeyFunc {
	return func(obj map[string]any) (string, bool) {
		return scalarKey(obj[name])
	}
}

// Identifier resolves the cache key of an object. Rules are consulted in
// order by typename; objects without a matching rule, or whose rule finds
// no key, fall back to DefaultIdentity.
type Identifier struct {
	rules []IdentityRule
}

func NewIdentifier(rules ...IdentityRule) *Identifier {
	return &Identifier{rules: append([]IdentityRule(nil), rules...)}
}

// Identify returns "Typename:key" or ok=false when obj is not cacheable on
// its own. The result depends only on obj.
func (id *Identifier) Identify(obj map[string]any) (string, bool) {
	typename, _ := obj[language.TypenameField].(string)
	if typename == "" {
		return "", false
	}
	if id != nil {
		for _, r := range id.rules {
			if r.Typename != typename {
				continue
			}
			if key, ok := r.Key(obj); ok {
				return typename + ":" + key, true
			}
			break
		}
	}
	return DefaultIdentity(obj)
}

// DefaultIdentity keys objects by typename and their "id" field, or "_id"
// when "id" is absent.
func DefaultIdentity(obj map[string]any) (string, bool) {
	typename, _ := obj[language.TypenameField].(string)
	if typename == "" {
		return "", false
	}
	if key, ok := scalarKey(obj["id"]); ok {
		return typename + ":" + key, true
	}
	if key, ok := scalarKey(obj["_id"]); ok {
		return typename + ":" + key, true
	}
	return "", false
}

func scalarKey(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, x != ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case interface{ String() string }:
		s := x.String()
		return s, s != ""
	default:
		return "", false
	}
}
