// Package services implements the driving port interfaces.
// Services contain the retrieval logic and orchestrate
// calls to driven ports (adapters).
//
// The relevance scorer, diverse selector and quality gate are pure
// functions of their inputs and settings; RetrievalService wires them
// together with a vector store, a document source and a chunking pipeline.
package services
