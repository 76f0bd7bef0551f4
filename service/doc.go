// Package service orchestrates the matching engine: store, matcher,
// journal, input snapshots and the outbox.
//
// It provides the commands the transports expose (running the matcher,
// submitting rankings, registering fellowships and applications) and is
// decoupled from gRPC and the CLI.
package service
