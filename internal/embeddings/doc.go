// Package embeddings encodes text into vectors for ranking and refinement.
//
// Every encode call carries a role. Queries and documents are encoded
// differently and only vectors from the same model are comparable, so
// callers go through EmbedQuery or EmbedDocuments and never mix them.
//
// Two providers are available: FastEmbed runs a local ONNX model loaded once
// per run, and TEI calls a text-embeddings-inference server. Any failure to
// load the model or encode a batch wraps ErrModelUnavailable.
package embeddings
