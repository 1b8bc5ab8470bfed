package sqlite

// dbFile is the query cache, rebuilt from the JSONL files on every open.
const dbFile = "backoffice.db"

const (
	createRecords = `CREATE TABLE IF NOT EXISTS records (
    entity TEXT NOT NULL,
    id TEXT NOT NULL,
    position INTEGER NOT NULL,
    payload TEXT NOT NULL,
    PRIMARY KEY (entity, id)
);`

	createRecordsPositionIndex = `CREATE INDEX IF NOT EXISTS idx_records_entity_position ON records (entity, position);`
)

// schemaDDL lists the statements executed when the cache is created.
var schemaDDL = []string{
	createRecords,
	createRecordsPositionIndex,
}
