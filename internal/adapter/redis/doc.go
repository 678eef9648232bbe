// Package redis holds the optional Redis-backed pieces of the bot: the shared
// tally store, a pub/sub announcer and the leader lease used when several
// instances run against one repository.
package redis
