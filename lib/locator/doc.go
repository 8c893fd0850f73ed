// Package locator implements the resource discovery state of a manager node:
// the cache of known resource owners and the bookkeeping of in-flight
// "who has this resource" rounds.
//
// A round is opened by the first request for a name that is neither hosted
// locally nor cached. The caller broadcasts one query per peer; the round
// counts the answers. The first positive answer caches the owner and releases
// every parked message so the caller can forward them. If every peer answers
// negatively the parked messages are released for a "not found" denial.
// Requests for the same name that arrive while the round is open are parked
// in the same round, so a name is never broadcast twice concurrently.
//
// The cache is never invalidated: resource ownership is static for the
// lifetime of a node. Rounds have no timeout; a peer that never answers keeps
// its round open.
package locator
