// Package services holds the ingestion, chat, training and chunk selection
// logic. It talks to storage, extractors and language models only through
// the driven ports, so the memory stores and fakes can stand in for tests.
package services
