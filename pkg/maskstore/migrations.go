package maskstore

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE mask(
			id INTEGER PRIMARY KEY,
			image_id TEXT NOT NULL,
			width INT NOT NULL,
			height INT NOT NULL,
			classes INT NOT NULL,
			created_at INT NOT NULL
		);

		CREATE UNIQUE INDEX idx_mask_image_id ON mask (image_id);
	`))

	return migs
}
