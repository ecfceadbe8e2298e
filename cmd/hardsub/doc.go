// Package main hosts the hardsub CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, sets up structured logging,
// and hands videos to the batch scheduler. History, doctor, and config
// subcommands surface the supporting packages. New behaviour belongs in the
// internal packages first; commands here stay thin.
package main
