// Package simfit holds the numerical core used to post-process materials
// simulations: block-averaged stress and cell statistics with strain tensors
// (package strain), and iterative Boltzmann inversion of coarse-grained
// potentials (packages histo, potfit and ibi).
//
// The simulation engine and its document model are not part of this library.
// They are reached through plain data (frames, samples, tables) or through the
// small interfaces in package ibi. Package tables reads and writes those data files,
// package store keeps the rounds of a fit in SQLite, package config reads the
// parameters, and package potplot draws the potentials. The simfit command in
// cmd/simfit puts it all together.
//
// This root package holds the error types shared by all the packages, which
// implement the Error interface, and a few physical constants.
package simfit
