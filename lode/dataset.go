package lode

import (
	"strings"

	"github.com/justapithecus/lode/lode"
)

// DefaultLedgerDataset is the dataset ID used when none is configured.
const DefaultLedgerDataset = "reprox"

// ledgerPartitions is the Hive layout of the ledger dataset.
// Every ledger record carries these keys as fields.
var ledgerPartitions = []string{"day", "batch_id", "record_kind"}

// NewLedgerDataset creates the Lode Dataset backing the promotion ledger.
// Reads and writes share the same codec and layout.
func NewLedgerDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	if dataset == "" {
		dataset = DefaultLedgerDataset
	}
	return lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout(ledgerPartitions...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
}

// OpenLedgerDataset creates the ledger dataset on the backend named by cfg.
func OpenLedgerDataset(dataset string, cfg StoreConfig) (lode.Dataset, error) {
	factory, err := NewStoreFactory(cfg)
	if err != nil {
		return nil, err
	}
	return NewLedgerDataset(dataset, factory)
}

// snapshotMatches reports whether any file of snap lies in the
// key=value partition. An empty value matches everything.
func snapshotMatches(snap *lode.DatasetSnapshot, key, value string) bool {
	if value == "" {
		return true
	}
	for _, f := range snap.Manifest.Files {
		if matchesPartitionValue(f.Path, key, value) {
			return true
		}
	}
	return false
}

// matchesPartitionValue checks for an exact key=value path segment,
// so batch_id=b-1 does not match batch_id=b-10.
func matchesPartitionValue(p, key, value string) bool {
	segment := key + "=" + value
	for _, part := range strings.Split(p, "/") {
		if part == segment {
			return true
		}
	}
	return false
}
