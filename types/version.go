package types

// Version is the canonical project version.
// The CLI, ledger records and adapter events all report this version.
const Version = "0.3.0"

// ContractVersion is stamped on ledger records and adapter events.
// It moves in lockstep with Version.
const ContractVersion = Version
