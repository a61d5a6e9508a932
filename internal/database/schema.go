package database

// schemaStatements is the idempotent DDL for a memory bank. Node tables key
// on the composite graph ID ("repo:branch:logical" for entities,
// "repo:branch" for Repository, bare logical IDs for File and Tag). Every
// statement uses IF NOT EXISTS so bootstrap can run against a live database.
var schemaStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Repository(
		id STRING,
		name STRING,
		branch STRING,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		PRIMARY KEY (id));`,
	`CREATE NODE TABLE IF NOT EXISTS Metadata(
		id STRING,
		name STRING,
		content STRING,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		PRIMARY KEY (id));`,
	`CREATE NODE TABLE IF NOT EXISTS Context(
		id STRING,
		name STRING,
		iso_date DATE,
		agent STRING,
		summary STRING,
		related_issue STRING,
		decisions STRING[],
		observations STRING[],
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		PRIMARY KEY (id));`,
	`CREATE NODE TABLE IF NOT EXISTS Component(
		id STRING,
		name STRING,
		kind STRING,
		status STRING,
		depends_on STRING[],
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		PRIMARY KEY (id));`,
	`CREATE NODE TABLE IF NOT EXISTS Decision(
		id STRING,
		name STRING,
		context STRING,
		date DATE,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		PRIMARY KEY (id));`,
	`CREATE NODE TABLE IF NOT EXISTS Rule(
		id STRING,
		name STRING,
		created DATE,
		triggers STRING[],
		content STRING,
		status STRING,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		PRIMARY KEY (id));`,
	`CREATE NODE TABLE IF NOT EXISTS File(
		id STRING,
		name STRING,
		path STRING,
		mime_type STRING,
		size INT64,
		metadata STRING,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		PRIMARY KEY (id));`,
	`CREATE NODE TABLE IF NOT EXISTS Tag(
		id STRING,
		name STRING,
		category STRING,
		description STRING,
		color STRING,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		PRIMARY KEY (id));`,

	`CREATE REL TABLE IF NOT EXISTS PART_OF(
		FROM Metadata TO Repository,
		FROM Context TO Repository,
		FROM Component TO Repository,
		FROM Decision TO Repository,
		FROM Rule TO Repository,
		FROM File TO Repository,
		FROM Tag TO Repository);`,
	`CREATE REL TABLE IF NOT EXISTS HAS_METADATA(FROM Repository TO Metadata);`,
	`CREATE REL TABLE IF NOT EXISTS HAS_CONTEXT(FROM Repository TO Context);`,
	`CREATE REL TABLE IF NOT EXISTS HAS_COMPONENT(FROM Repository TO Component);`,
	`CREATE REL TABLE IF NOT EXISTS HAS_DECISION(FROM Repository TO Decision);`,
	`CREATE REL TABLE IF NOT EXISTS HAS_RULE(FROM Repository TO Rule);`,
	`CREATE REL TABLE IF NOT EXISTS HAS_FILE(FROM Repository TO File);`,
	`CREATE REL TABLE IF NOT EXISTS DEPENDS_ON(FROM Component TO Component);`,
	`CREATE REL TABLE IF NOT EXISTS IMPLEMENTS(FROM Component TO File);`,
	`CREATE REL TABLE IF NOT EXISTS GOVERNS(FROM Rule TO Component);`,
	`CREATE REL TABLE IF NOT EXISTS AFFECTS(FROM Decision TO Component);`,
	`CREATE REL TABLE IF NOT EXISTS CONTEXT_OF(
		FROM Context TO Component,
		FROM Context TO Decision,
		FROM Context TO Rule);`,
	`CREATE REL TABLE IF NOT EXISTS TAGGED_WITH(
		FROM Component TO Tag,
		FROM Decision TO Tag,
		FROM Rule TO Tag,
		FROM File TO Tag,
		FROM Context TO Tag);`,
}
