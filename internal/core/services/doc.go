// Package services implements the application core: the ingestion
// orchestrator, the embedding gateway, similarity retrieval, context
// assembly, conversation management, and the chat pipeline.
package services
