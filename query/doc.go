// Package query is the stateless read-only HTTP surface of a smart node.
// It shares the endpoint's base address with the duplex gateway but has no
// authentication, correlation or lifecycle concerns.
package query
