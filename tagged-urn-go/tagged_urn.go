// Package taggedurn implements the tagged-URN algebra: a prefix plus a
// mapping of lowercase tag keys to case-preserved tag values, with
// wildcard-based conformance matching and specificity scoring.
package taggedurn

import (
	"sort"
	"strings"
)

// ErrorCode identifies the kind of parse or construction failure.
type ErrorCode int

const (
	ErrorInvalidFormat ErrorCode = iota
	ErrorDuplicateKey
	ErrorNumericKey
	ErrorUnterminatedQuote
	ErrorInvalidEscape
	ErrorInvalidCharacter
	ErrorPrefixMismatch
)

// TaggedUrnError is the error type returned by this package.
type TaggedUrnError struct {
	Code    ErrorCode
	Message string
}

func (e *TaggedUrnError) Error() string {
	return e.Message
}

func newErr(code ErrorCode, message string) *TaggedUrnError {
	return &TaggedUrnError{Code: code, Message: message}
}

// TaggedUrn is an immutable value type: a prefix and a tag mapping.
type TaggedUrn struct {
	prefix string
	tags   map[string]string
}

// NewTaggedUrnFromString parses "prefix:key=value;key=value...". A key may
// also appear bare (no "=value"), which is equivalent to an explicit empty
// value — used for flag-style tags like "textable" or "bytes".
func NewTaggedUrnFromString(s string) (*TaggedUrn, error) {
	idx := strings.IndexByte(s, ':')
	if idx <= 0 {
		return nil, newErr(ErrorInvalidFormat, "missing or empty prefix before ':'")
	}
	prefix := s[:idx]
	rest := s[idx+1:]

	tags, err := parseTags(rest)
	if err != nil {
		return nil, err
	}

	return &TaggedUrn{prefix: prefix, tags: tags}, nil
}

// NewTaggedUrnFromTags builds a TaggedUrn directly from a prefix and tag map.
// Keys are lowercased and validated the same way the string parser does.
func NewTaggedUrnFromTags(prefix string, tags map[string]string) (*TaggedUrn, error) {
	if prefix == "" {
		return nil, newErr(ErrorInvalidFormat, "empty prefix")
	}
	normalized := make(map[string]string, len(tags))
	for k, v := range tags {
		lk := strings.ToLower(k)
		if lk == "" {
			return nil, newErr(ErrorInvalidFormat, "empty tag key")
		}
		if isNumeric(lk) {
			return nil, newErr(ErrorNumericKey, "purely numeric key: "+k)
		}
		if _, exists := normalized[lk]; exists {
			return nil, newErr(ErrorDuplicateKey, "duplicate key: "+lk)
		}
		normalized[lk] = v
	}
	return &TaggedUrn{prefix: prefix, tags: normalized}, nil
}

func isBareChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '-', c == '/', c == ':', c == '.', c == '*':
		return true
	}
	return false
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func parseTags(s string) (map[string]string, error) {
	tags := make(map[string]string)
	if s == "" {
		return tags, nil
	}

	i := 0
	n := len(s)
	for i < n {
		keyStart := i
		for i < n && s[i] != '=' && s[i] != ';' {
			if s[i] == '"' {
				return nil, newErr(ErrorInvalidFormat, "unexpected '\"' in key near: "+s[keyStart:])
			}
			if !isBareChar(s[i]) {
				return nil, newErr(ErrorInvalidCharacter, "invalid character in key")
			}
			i++
		}
		key := s[keyStart:i]
		if key == "" {
			return nil, newErr(ErrorInvalidFormat, "empty tag key")
		}

		// A key with no '=' is a bare flag tag (value is the empty string);
		// spec.md's tag-list entries don't all carry explicit values (e.g.
		// "media:textable;bytes").
		var value string
		if i < n && s[i] == '=' {
			i++ // skip '='
			if i < n && s[i] == '"' {
				i++
				var sb strings.Builder
				closed := false
				for i < n {
					c := s[i]
					if c == '\\' {
						i++
						if i >= n {
							return nil, newErr(ErrorInvalidEscape, "dangling escape at end of input")
						}
						switch s[i] {
						case '"', '\\':
							sb.WriteByte(s[i])
						default:
							return nil, newErr(ErrorInvalidEscape, "invalid escape sequence")
						}
						i++
						continue
					}
					if c == '"' {
						closed = true
						i++
						break
					}
					sb.WriteByte(c)
					i++
				}
				if !closed {
					return nil, newErr(ErrorUnterminatedQuote, "unterminated quoted value")
				}
				value = sb.String()
			} else {
				valStart := i
				for i < n && s[i] != ';' {
					if !isBareChar(s[i]) {
						return nil, newErr(ErrorInvalidCharacter, "invalid character in bare value")
					}
					i++
				}
				value = s[valStart:i]
			}
		}

		if i < n {
			if s[i] != ';' {
				return nil, newErr(ErrorInvalidCharacter, "expected ';' after value")
			}
			i++
			if i == n {
				break // trailing ';' ignored
			}
		}

		lkey := strings.ToLower(key)
		if isNumeric(lkey) {
			return nil, newErr(ErrorNumericKey, "purely numeric key: "+key)
		}
		if _, exists := tags[lkey]; exists {
			return nil, newErr(ErrorDuplicateKey, "duplicate key: "+lkey)
		}
		tags[lkey] = value
	}

	return tags, nil
}

// GetPrefix returns the URN's prefix exactly as constructed.
func (u *TaggedUrn) GetPrefix() string {
	return u.prefix
}

// GetTag returns the value for a lowercased key, if present.
func (u *TaggedUrn) GetTag(key string) (string, bool) {
	v, ok := u.tags[strings.ToLower(key)]
	return v, ok
}

// AllTags returns a copy of the full tag mapping.
func (u *TaggedUrn) AllTags() map[string]string {
	out := make(map[string]string, len(u.tags))
	for k, v := range u.tags {
		out[k] = v
	}
	return out
}

// WithTag returns a new TaggedUrn with the given key set to value.
func (u *TaggedUrn) WithTag(key, value string) (*TaggedUrn, error) {
	lk := strings.ToLower(key)
	if lk == "" {
		return nil, newErr(ErrorInvalidFormat, "empty tag key")
	}
	if isNumeric(lk) {
		return nil, newErr(ErrorNumericKey, "purely numeric key: "+key)
	}
	next := u.AllTags()
	next[lk] = value
	return &TaggedUrn{prefix: u.prefix, tags: next}, nil
}

// WithoutTag returns a new TaggedUrn with the given key removed.
func (u *TaggedUrn) WithoutTag(key string) *TaggedUrn {
	next := u.AllTags()
	delete(next, strings.ToLower(key))
	return &TaggedUrn{prefix: u.prefix, tags: next}
}

func needsQuoting(v string) bool {
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch c {
		case ';', '=', '"', '\\', ' ', '\t':
			return true
		}
		if c >= 'A' && c <= 'Z' {
			return true
		}
	}
	return false
}

func quoteValue(v string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '"' || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	sb.WriteByte('"')
	return sb.String()
}

// String returns the canonical serialization: keys sorted lexicographically,
// values quoted iff they contain reserved characters or an uppercase letter.
func (u *TaggedUrn) String() string {
	keys := make([]string, 0, len(u.tags))
	for k := range u.tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(u.prefix)
	sb.WriteByte(':')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(';')
		}
		v := u.tags[k]
		sb.WriteString(k)
		if v != "" {
			sb.WriteByte('=')
			if needsQuoting(v) {
				sb.WriteString(quoteValue(v))
			} else {
				sb.WriteString(v)
			}
		}
	}
	return sb.String()
}

// Equals reports semantic equality: same prefix (case-insensitive) and
// identical tag mapping (case-sensitive on values).
func (u *TaggedUrn) Equals(other *TaggedUrn) bool {
	if u == nil || other == nil {
		return u == other
	}
	if !strings.EqualFold(u.prefix, other.prefix) {
		return false
	}
	if len(u.tags) != len(other.tags) {
		return false
	}
	for k, v := range u.tags {
		ov, ok := other.tags[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Specificity is the number of tags whose value is not the wildcard "*".
func (u *TaggedUrn) Specificity() int {
	n := 0
	for _, v := range u.tags {
		if v != "*" {
			n++
		}
	}
	return n
}

// Accepts reports whether u (the pattern) accepts instance: for every tag k
// set in u, either u[k] == "*", or instance[k] is set and (instance[k] ==
// u[k] or instance[k] == "*"). Prefixes must match case-insensitively.
func (u *TaggedUrn) Accepts(instance *TaggedUrn) (bool, error) {
	if u == nil || instance == nil {
		return false, nil
	}
	if !strings.EqualFold(u.prefix, instance.prefix) {
		return false, nil
	}
	for k, v := range u.tags {
		if v == "*" {
			continue
		}
		iv, ok := instance.tags[k]
		if !ok {
			return false, nil
		}
		if iv != v && iv != "*" {
			return false, nil
		}
	}
	return true, nil
}

// ConformsTo reports whether u (the instance) conforms to pattern:
// equivalent to pattern.Accepts(u).
func (u *TaggedUrn) ConformsTo(pattern *TaggedUrn) (bool, error) {
	return pattern.Accepts(u)
}
