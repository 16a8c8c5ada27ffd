// Package repair turns loosely structured generated text into typed,
// bounded records. Parse never fails; the Decode functions apply typed
// defaults so no untyped map leaves this package.
package repair
