// Package talk keeps talks: XML documents that record one unit of automated
// work, persisted in a ports.TalkStore.
//
// Every read upgrades the stored document through a migration chain, and
// every modification is applied, validated against the current schema and
// saved under a per-talk lock, all or nothing. A failed modification never
// changes the stored bytes.
package talk
