package ident

import (
	"crypto/sha256"
	"encoding/hex"
)

// Length is the number of hex characters in an identifier.
const Length = 32

// Of identifies an article-style unit by its text.
func Of(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:Length/2])
}

// OfTopic identifies a topic-tagged unit by its text followed by its topic, so the
// same text under two topics yields two identifiers.
func OfTopic(text, topic string) string {
	return Of(text + topic)
}
