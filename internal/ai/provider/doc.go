// Package provider abstracts text generation backends behind a single
// interface with blocking and streaming entry points. OpenAI and
// Anthropic adapters wrap the official SDKs; the mock provider scripts
// responses for tests and offline operation.
package provider
