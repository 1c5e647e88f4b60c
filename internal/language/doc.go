// Package language normalizes ISO 639 language codes and renders display
// names using golang.org/x/text.
package language
