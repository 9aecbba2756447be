// Package refine produces short extractive summaries of ranked sections.
//
// A section's content is cut into sentence-like chunks, the chunks closest
// to the query are kept, and the result is normalised and held to a word
// budget.
//
// # Chunk order
//
// Selected chunks are emitted by descending similarity to the query, not in
// document order. The most relevant material leads even when that breaks
// the section's narrative flow.
//
// # Normalisation
//
// Clean applies Rules in order. Later rules assume the earlier ones ran:
// whitespace is collapsed only after links and paths have been removed, and
// short sentences are dropped only after everything else.
package refine
