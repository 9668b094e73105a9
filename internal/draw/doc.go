// Package draw runs one Secret Santa draw end to end: it loads contacts,
// seeds history from the archive, generates the pairings, writes the debug
// record, composes the emails and delivers them.
//
// Prepare does everything that has no side effects outside the state
// directory. Delivery is split into Send (one message) and Complete (archive
// and journal) so interactive front ends can report progress per recipient.
package draw
