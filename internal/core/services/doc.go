// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The write path is DocumentService: extract, chunk, embed, index.
// The read path is ChatService, which combines RetrievalService and
// AnswerGenerator for a single question.
package services
