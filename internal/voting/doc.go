// Package voting holds the pure decision logic: reading votes out of comments,
// tallying them against the endorser set, the quorum and supermajority rule,
// the voting window, and the texts the bot posts (including the voting-started
// marker whose trailing token records the head commit).
package voting
