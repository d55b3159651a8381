// Package local provides in-process embedding and reranking used when no
// remote provider is configured.
package local
