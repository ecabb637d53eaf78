package database

import "housefinder/server/internal/models"

func (d *Database) RunMigrations() error {
	return d.db.AutoMigrate(&LookupEntry{}, &models.Event{})
}
