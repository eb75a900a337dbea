// Package standard provides the minimal, dependency-free media and cap URN
// constants that the urn package's built-in constructors resolve against.
// Richer named constants with profile URIs live in the media package; these
// are kept in lockstep (same well-known tags) but bare, since urn cannot
// import media without creating an import cycle.
package standard

// =============================================================================
// STANDARD MEDIA URN CONSTANTS
// =============================================================================

// MediaVoid represents the void media type
const MediaVoid = "media:void"

// MediaString represents the string media type
const MediaString = "media:textable;form=scalar"

// MediaBinary represents the binary media type
const MediaBinary = "media:bytes"

// MediaObject represents the object (map) media type
const MediaObject = "media:textable;form=map"

// MediaInteger represents the integer media type
const MediaInteger = "media:integer;textable;numeric;form=scalar"

// MediaNumber represents the number (float) media type
const MediaNumber = "media:textable;numeric;form=scalar"

// MediaBoolean represents the boolean media type
const MediaBoolean = "media:bool;textable;form=scalar"
