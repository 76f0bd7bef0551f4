// Package snapshot keeps a copy of the exact input each matching run saw.
//
// A run's input is fetched once from the store; writing it out next to the
// run's sequence number lets an operator re-run the matcher later and
// confirm the stored result still follows from it.
package snapshot
