package postgresql

func projectMigrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE projects (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				snapshot JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_projects_created_at ON projects(created_at);
		`,
		2: `
			ALTER TABLE projects ADD COLUMN node_count INTEGER NOT NULL DEFAULT 0;
		`,
	}
}
