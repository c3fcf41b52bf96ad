// Package hts builds and submits Hedera Token Service transactions for the
// harness: fungible token creation, minting, association, two-party
// transfers and multi-party transfers signed by every debited account.
//
// Builders (Build*, PlanCreateToken, RequiredSigners) are pure and never
// touch the network. The remaining functions take a *ledger.Session, freeze
// and sign against it, and return the SDK response so callers decide when to
// wait for a receipt.
package hts
