package storage

func init() {
	RegisterAdapter(isFilePath, newFileAdapter)
	RegisterAdapter(isSQLDB, newSQLAdapter)
	RegisterAdapter(isMongoDB, newMongoAdapter)

	// drivers
	RegisterDriver("file", newFileDriver)
	RegisterDriver("sqlite", newSQLDriver("sqlite"))
	RegisterDriver("postgres", newSQLDriver("postgres"))
	RegisterDriver("mongodb", newMongoDriver)
}
