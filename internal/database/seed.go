package database

import (
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/agrinote/agrinote/internal/models"
)

// SeedDevData populates the database with development test data.
// Idempotent: skips if data already exists.
func SeedDevData(db *gorm.DB) error {
	var existingOrg models.Organization
	result := db.Where("slug = ?", "dev-farm").First(&existingOrg)
	if result.Error == nil {
		log.Println("Seed data already exists, skipping")
		return nil
	}

	org := models.Organization{
		Name:     "Dev Farm",
		Slug:     "dev-farm",
		Timezone: "Asia/Tokyo",
	}
	if err := db.Create(&org).Error; err != nil {
		return err
	}

	user := models.User{
		Email:          "dev@agrinote.local",
		Name:           "Dev Farmer",
		OrganizationID: org.ID,
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	northField := models.Thing{
		OrganizationID: org.ID,
		Name:           "North field",
		Kind:           models.ThingKindField,
	}
	greenhouseA := models.Thing{
		OrganizationID: org.ID,
		Name:           "Greenhouse A",
		Kind:           models.ThingKindGreenhouse,
	}
	if err := db.Create(&northField).Error; err != nil {
		return err
	}
	if err := db.Create(&greenhouseA).Error; err != nil {
		return err
	}

	today := time.Now().In(org.Location()).Format("2006-01-02")
	title1 := "Tomato harvest"
	workType1 := "harvesting"
	dur1 := 2.5
	title2 := "Morning watering"
	workType2 := "watering"
	dur2 := 0.75

	diaries := []models.Diary{
		{
			OrganizationID: org.ID,
			Date:           today,
			Title:          &title1,
			WorkType:       &workType1,
			DurationHours:  &dur1,
			AuthorID:       &user.ID,
			Things:         []models.Thing{greenhouseA},
		},
		{
			OrganizationID: org.ID,
			Date:           today,
			Title:          &title2,
			WorkType:       &workType2,
			DurationHours:  &dur2,
			AuthorID:       &user.ID,
			Things:         []models.Thing{northField, greenhouseA},
		},
		{
			// Quick note: no title, no work type, no duration, no things.
			OrganizationID: org.ID,
			Date:           today,
		},
	}
	for i := range diaries {
		if err := db.Create(&diaries[i]).Error; err != nil {
			return err
		}
	}

	// Sample channel, disabled so dev runs never post anywhere. The
	// placeholder ciphertext is replaced when a real channel is registered
	// through the API.
	channel := models.Channel{
		OrganizationID:      org.ID,
		Name:                "Sample webhook",
		Kind:                models.ChannelKindWebhook,
		EncryptedWebhookURL: "placeholder",
		Notifications:       datatypes.JSON([]byte(`{"daily_digest": true}`)),
		Enabled:             false,
	}
	if err := db.Create(&channel).Error; err != nil {
		return err
	}

	log.Println("Seeded development data: 1 organization, 1 user, 2 things, 3 diaries, 1 channel")
	return nil
}
