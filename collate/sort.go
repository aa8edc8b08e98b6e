// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package collate

import (
	"sort"
)

// SortKeyField is the record field in which the service returns the
// sort-key tuple computed for each record of a sorted query.
const SortKeyField = "_sortkey"

// ReverseFlagger is implemented by sort specifications which know their own
// per-position directions.
type ReverseFlagger interface {
	ReverseFlags() []bool
}

// ReverseFlags extracts the per-position reverse flags from a sort
// specification. Strings and objects without a "reverse" list are the
// legacy one-key form and are never reversed.
func ReverseFlags(spec interface{}) []bool {
	switch s := spec.(type) {
	case nil:
		return nil
	case ReverseFlagger:
		return s.ReverseFlags()
	case map[string]interface{}:
		switch rev := s["reverse"].(type) {
		case []bool:
			return rev
		case []interface{}:
			flags := make([]bool, len(rev))
			for i, r := range rev {
				b, _ := r.(bool)
				flags[i] = b
			}
			return flags
		}
	}
	return nil
}

// Key returns the sort-key tuple of record. A key that is not an array is
// a 1-tuple, and a record without a key has the tuple [nil].
func Key(record interface{}) []interface{} {
	var key interface{}
	if m, ok := record.(map[string]interface{}); ok {
		key = m[SortKeyField]
	}
	if k, ok := key.([]interface{}); ok {
		return k
	}
	return []interface{}{key}
}

// CompareKeys compares two sort-key tuples position by position. Positions
// beyond len(reverse) are ascending.
func CompareKeys(a, b []interface{}, reverse []bool) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var av, bv interface{}
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		c := Compare(av, bv)
		if c == 0 {
			continue
		}
		if i < len(reverse) && reverse[i] {
			return -c
		}
		return c
	}
	return 0
}

// SortRecords sorts records in place by their sort-key tuples. The sort is
// stable: records with equal tuples keep their relative order.
func SortRecords(records []interface{}, reverse []bool) {
	keys := make([][]interface{}, len(records))
	for i, r := range records {
		keys[i] = Key(r)
	}
	sort.Stable(&keyedRecords{records: records, keys: keys, reverse: reverse})
}

// StripKeys removes the sort-key field from every map record.
func StripKeys(records []interface{}) {
	for _, r := range records {
		if m, ok := r.(map[string]interface{}); ok {
			delete(m, SortKeyField)
		}
	}
}

type keyedRecords struct {
	records []interface{}
	keys    [][]interface{}
	reverse []bool
}

func (k *keyedRecords) Len() int { return len(k.records) }

func (k *keyedRecords) Less(i, j int) bool {
	return CompareKeys(k.keys[i], k.keys[j], k.reverse) < 0
}

func (k *keyedRecords) Swap(i, j int) {
	k.records[i], k.records[j] = k.records[j], k.records[i]
	k.keys[i], k.keys[j] = k.keys[j], k.keys[i]
}
