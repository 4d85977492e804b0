package model

import "gorm.io/gorm"

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Post{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&PostVersion{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&CollaborativeSession{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&PublishingQueueItem{}); err != nil {
		return err
	}

	return db.AutoMigrate(&Subscriber{})
}
