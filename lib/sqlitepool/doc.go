// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens the SQLite connection pool that backs a
// chunkstore database file.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool and applies one set
// of pragmas to every connection before handing it out. Connections
// are not safe for concurrent use: [Pool.Do] (or [Pool.Take] and
// [Pool.Put]) gives a goroutine exclusive use of one for the duration
// of its work.
//
// # Pragmas
//
//   - journal_mode=WAL: readers never wait for the writer, so Get and
//     Keys proceed while a Set is streaming segments.
//   - synchronous=NORMAL: committed statements survive a process
//     crash.
//   - busy_timeout=5000: wait up to 5 seconds for the write lock
//     instead of failing with SQLITE_BUSY.
//   - cache_size=-8192: 8 MB page cache per connection.
//   - mmap_size=268435456: 256 MB memory-mapped reads. Large values
//     are read back segment by segment, and mmap avoids a copy per
//     page.
//   - temp_store=MEMORY: the GROUP BY behind key ordering sorts in
//     memory.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   "/var/lib/chunkstore/values.db",
//	    Logger: logger,
//	    OnConnect: func(conn *sqlite.Conn) error {
//	        return sqlitex.ExecuteScript(conn, schema, nil)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	err = pool.Do(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{...})
//	})
package sqlitepool
