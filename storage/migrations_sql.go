package storage

var sqliteMigrations = map[int][]string{
	1: {
		`CREATE TABLE IF NOT EXISTS manifold_schema_version (
			num INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS manifold_state (
			gate_id TEXT PRIMARY KEY,
			centroid BLOB NOT NULL,
			history TEXT NOT NULL,
			date_updated TIMESTAMP NOT NULL
		)`,
	},
}

var postgresMigrations = map[int][]string{
	1: {
		`CREATE TABLE IF NOT EXISTS manifold_schema_version (
			num INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS manifold_state (
			gate_id TEXT PRIMARY KEY,
			centroid BYTEA NOT NULL,
			history TEXT NOT NULL,
			date_updated TIMESTAMPTZ NOT NULL
		)`,
	},
}
