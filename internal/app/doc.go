// Package app runs the voting lifecycle.
//
// EndorserIndex and ProposalCache mirror the remote repository, Controller
// drives each proposal from announcement to verdict, and Scheduler feeds it
// from timers and push events. Depends on domain interfaces, not adapters.
package app
