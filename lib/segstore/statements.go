// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package segstore

import "fmt"

// statements holds the SQL issued against one table. The table name is
// validated as a plain identifier before it is interpolated; every
// value travels as a bound parameter.
type statements struct {
	exists    string
	deleteKey string
	upsert    string
	read      string
	deleteAll string
	countKeys string
	countRows string
	keys      string
	keyAt     string
	scan      string
}

// Storage order is the rowid of a key's first current row. A rewrite
// deletes the old rows, so a rewritten key moves to the end.
func buildStatements(table string) statements {
	orderedKeys := fmt.Sprintf(`SELECT "key" FROM %s GROUP BY "key" ORDER BY MIN(rowid)`, table)
	return statements{
		exists:    fmt.Sprintf(`SELECT 1 FROM %s WHERE "key" = ? LIMIT 1`, table),
		deleteKey: fmt.Sprintf(`DELETE FROM %s WHERE "key" = ?`, table),
		upsert: fmt.Sprintf(`INSERT OR REPLACE INTO %s ("key", payload, part_index, timestamp) `+
			`VALUES (?, ?, ?, ?)`, table),
		read:      fmt.Sprintf(`SELECT part_index, payload FROM %s WHERE "key" = ? ORDER BY part_index ASC`, table),
		deleteAll: fmt.Sprintf(`DELETE FROM %s`, table),
		countKeys: fmt.Sprintf(`SELECT COUNT(DISTINCT "key") FROM %s`, table),
		countRows: fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE "key" = ?`, table),
		keys:      orderedKeys,
		keyAt:     orderedKeys + ` LIMIT 1 OFFSET ?`,
		scan: fmt.Sprintf(`SELECT s."key", s.part_index, s.payload FROM %[1]s AS s `+
			`JOIN (SELECT "key", MIN(rowid) AS first_row FROM %[1]s GROUP BY "key") AS k ON s."key" = k."key" `+
			`ORDER BY k.first_row, s.part_index`, table),
	}
}
