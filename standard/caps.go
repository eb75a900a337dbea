// Package standard provides standard capability URN builders
package standard

// =============================================================================
// STANDARD CAP URN CONSTANTS
// =============================================================================

// CapIdentity is the standard identity capability URN
// Accepts any media type as input and outputs the same type
const CapIdentity = "cap:in=media:;out=media:"

// CapDiscard is the standard discard capability URN
// Accepts any media type as input and produces void output
const CapDiscard = "cap:in=media:;out=media:void"
