package urn

import (
	"strings"

	taggedurn "github.com/filegrind/tagged-urn-go"
)

// CapUrn wraps a tagged URN with prefix "cap" and the required direction
// tags "in"/"out", each either the wildcard "*" or a media-URN string.
type CapUrn struct {
	inner *taggedurn.TaggedUrn
}

func directionError(tag, got string) error {
	msg := "cap URN missing required tag: " + tag
	if got != "" {
		msg = "cap URN tag " + tag + " must be '*' or a media URN string, got: " + got
	}
	return &taggedurn.TaggedUrnError{Code: taggedurn.ErrorInvalidFormat, Message: msg}
}

func validateDirectionTag(u *taggedurn.TaggedUrn, tag string) error {
	v, ok := u.GetTag(tag)
	if !ok {
		return directionError(tag, "")
	}
	if v != "*" && !strings.HasPrefix(v, "media:") {
		return directionError(tag, v)
	}
	return nil
}

func validateCapTags(u *taggedurn.TaggedUrn) error {
	if err := validateDirectionTag(u, "in"); err != nil {
		return err
	}
	if err := validateDirectionTag(u, "out"); err != nil {
		return err
	}
	return nil
}

// NewCapUrnFromString parses a cap URN string. Both "in" and "out" tags are
// required and must be "*" or a string starting with "media:".
func NewCapUrnFromString(s string) (*CapUrn, error) {
	parsed, err := taggedurn.NewTaggedUrnFromString(s)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(parsed.GetPrefix(), "cap") {
		return nil, &taggedurn.TaggedUrnError{
			Code:    taggedurn.ErrorPrefixMismatch,
			Message: "invalid prefix for cap URN: expected 'cap:'",
		}
	}
	if err := validateCapTags(parsed); err != nil {
		return nil, err
	}
	return &CapUrn{inner: parsed}, nil
}

// NewCapUrnFromTags builds a cap URN from an in/out spec pair plus any
// additional discriminating tags.
func NewCapUrnFromTags(inSpec, outSpec string, extra map[string]string) (*CapUrn, error) {
	tags := make(map[string]string, len(extra)+2)
	for k, v := range extra {
		tags[k] = v
	}
	tags["in"] = inSpec
	tags["out"] = outSpec

	built, err := taggedurn.NewTaggedUrnFromTags("cap", tags)
	if err != nil {
		return nil, err
	}
	if err := validateCapTags(built); err != nil {
		return nil, err
	}
	return &CapUrn{inner: built}, nil
}

// String returns the canonical serialization.
func (c *CapUrn) String() string {
	if c.inner == nil {
		return ""
	}
	return c.inner.String()
}

// InSpec returns the "in" tag value ("*" or a media-URN string).
func (c *CapUrn) InSpec() string {
	v, _ := c.inner.GetTag("in")
	return v
}

// OutSpec returns the "out" tag value ("*" or a media-URN string).
func (c *CapUrn) OutSpec() string {
	v, _ := c.inner.GetTag("out")
	return v
}

// GetTag retrieves a tag value by lowercased key.
func (c *CapUrn) GetTag(key string) (string, bool) {
	if c.inner == nil {
		return "", false
	}
	return c.inner.GetTag(key)
}

// HasTag reports tag presence.
func (c *CapUrn) HasTag(key string) bool {
	_, ok := c.GetTag(key)
	return ok
}

// AllTags returns a copy of the full tag mapping, including "in"/"out".
func (c *CapUrn) AllTags() map[string]string {
	if c.inner == nil {
		return nil
	}
	return c.inner.AllTags()
}

// WithTag returns a new CapUrn with the given key set, EXCEPT for "in"/"out"
// which are a no-op here - use WithInSpec / WithOutSpec for those.
func (c *CapUrn) WithTag(key, value string) (*CapUrn, error) {
	lk := strings.ToLower(key)
	if lk == "in" || lk == "out" {
		return c, nil
	}
	next, err := c.inner.WithTag(key, value)
	if err != nil {
		return nil, err
	}
	return &CapUrn{inner: next}, nil
}

// WithInSpec returns a new CapUrn with the "in" tag replaced.
func (c *CapUrn) WithInSpec(inSpec string) (*CapUrn, error) {
	next, err := c.inner.WithTag("in", inSpec)
	if err != nil {
		return nil, err
	}
	if err := validateDirectionTag(next, "in"); err != nil {
		return nil, err
	}
	return &CapUrn{inner: next}, nil
}

// WithOutSpec returns a new CapUrn with the "out" tag replaced.
func (c *CapUrn) WithOutSpec(outSpec string) (*CapUrn, error) {
	next, err := c.inner.WithTag("out", outSpec)
	if err != nil {
		return nil, err
	}
	if err := validateDirectionTag(next, "out"); err != nil {
		return nil, err
	}
	return &CapUrn{inner: next}, nil
}

// Equals reports semantic equality of the underlying tagged URNs.
func (c *CapUrn) Equals(other *CapUrn) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.inner.Equals(other.inner)
}

// Specificity is the number of non-wildcard tags, including "in"/"out".
func (c *CapUrn) Specificity() int {
	if c.inner == nil {
		return 0
	}
	return c.inner.Specificity()
}

func directionMatches(a, b string) bool {
	return a == "*" || b == "*" || a == b
}

// Matches reports whether this cap URn (C) can handle the given request URN
// (R): C.in and R.in match directionally, C.out and R.out match
// directionally, and for every other tag set on R, C either lacks it, has
// it wildcarded, or agrees with R's wildcard or value.
func (c *CapUrn) Matches(request *CapUrn) bool {
	if c == nil || request == nil || c.inner == nil || request.inner == nil {
		return false
	}
	if !directionMatches(c.InSpec(), request.InSpec()) {
		return false
	}
	if !directionMatches(c.OutSpec(), request.OutSpec()) {
		return false
	}
	for k, rv := range request.inner.AllTags() {
		if k == "in" || k == "out" {
			continue
		}
		cv, ok := c.inner.GetTag(k)
		if !ok {
			continue
		}
		if cv == "*" || rv == "*" || cv == rv {
			continue
		}
		return false
	}
	return true
}

// compatible reports whether, for every tag key set on both sides, one
// side is "*" or the values are equal.
func (c *CapUrn) compatible(other *CapUrn) bool {
	a := c.inner.AllTags()
	b := other.inner.AllTags()
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			continue
		}
		if av == "*" || bv == "*" || av == bv {
			continue
		}
		return false
	}
	return true
}

// IsMoreSpecificThan holds iff the two URNs are compatible (for every
// common key, one side is "*" or the values are equal) and this URN's
// specificity strictly exceeds other's.
func (c *CapUrn) IsMoreSpecificThan(other *CapUrn) bool {
	if c == nil || other == nil || c.inner == nil || other.inner == nil {
		return false
	}
	if !c.compatible(other) {
		return false
	}
	return c.Specificity() > other.Specificity()
}
