// Package domain defines the core types and interfaces of the voting bot.
//
// Concept-oriented files (proposal.go, tally.go, forge.go, announce.go, errors.go)
// hold shared types and the contracts that adapters implement. No I/O here.
package domain
