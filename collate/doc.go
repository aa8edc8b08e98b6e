// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

/*
Package collate defines the total order used to sort query results on the
client side, and the multi-key stable sort applied to assembled results.

The order must match the one used by the service bit for bit, so several
rules look arbitrary:

  - nil sorts before every other value.
  - Values of different kinds compare by the names of their kinds
    ("array" < "boolean" < "number" < "object" < "string").
  - Arrays compare element-wise; on a common prefix the shorter sorts first.
  - Objects compare by the sorted union of both key sets; a key missing on
    one side is compared as nil, so the object lacking it sorts first.
*/
package collate
