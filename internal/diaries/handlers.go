// Package diaries provides the thin HTTP surface for creating and listing the
// work records the digest pipeline aggregates.
package diaries

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/agrinote/agrinote/internal/apperror"
	"github.com/agrinote/agrinote/internal/models"
)

type createDiaryRequest struct {
	Date          string   `json:"date" binding:"required,datetime=2006-01-02"`
	Title         *string  `json:"title" binding:"omitempty,max=200"`
	WorkType      *string  `json:"work_type" binding:"omitempty,max=100"`
	DurationHours *float64 `json:"duration_hours" binding:"omitempty,gte=0"`
	AuthorID      *uint    `json:"author_id"`
	Memo          string   `json:"memo"`
	ThingIDs      []uint   `json:"thing_ids"`
}

type diaryResponse struct {
	ID            uint      `json:"id"`
	Date          string    `json:"date"`
	Title         *string   `json:"title"`
	WorkType      *string   `json:"work_type"`
	DurationHours *float64  `json:"duration_hours"`
	AuthorName    *string   `json:"author_name"`
	Memo          string    `json:"memo"`
	ThingNames    []string  `json:"thing_names"`
	CreatedAt     time.Time `json:"created_at"`
}

func toResponse(d models.Diary) diaryResponse {
	resp := diaryResponse{
		ID:            d.ID,
		Date:          d.Date,
		Title:         d.Title,
		WorkType:      d.WorkType,
		DurationHours: d.DurationHours,
		Memo:          d.Memo,
		ThingNames:    []string{},
		CreatedAt:     d.CreatedAt,
	}
	if d.Author != nil {
		name := d.Author.Name
		resp.AuthorName = &name
	}
	for _, thing := range d.Things {
		resp.ThingNames = append(resp.ThingNames, thing.Name)
	}
	return resp
}

// CreateDiaryHandler records one work diary, optionally linked to things of
// the same organization.
func CreateDiaryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		org, ok := loadOrganization(c, db)
		if !ok {
			return
		}

		var req createDiaryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if details := apperror.CustomValidationError(err); len(details) > 0 {
				c.JSON(http.StatusBadRequest, gin.H{"errors": details})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Linked things must belong to the same organization.
		var things []models.Thing
		if len(req.ThingIDs) > 0 {
			err := db.WithContext(c.Request.Context()).
				Where("organization_id = ? AND id IN ?", org.ID, req.ThingIDs).
				Find(&things).Error
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up things"})
				return
			}
			if len(things) != len(req.ThingIDs) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown thing id"})
				return
			}
		}

		diary := models.Diary{
			OrganizationID: org.ID,
			Date:           req.Date,
			Title:          req.Title,
			WorkType:       req.WorkType,
			DurationHours:  req.DurationHours,
			AuthorID:       req.AuthorID,
			Memo:           req.Memo,
			Things:         things,
		}

		if err := db.WithContext(c.Request.Context()).Create(&diary).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create diary"})
			return
		}

		c.JSON(http.StatusCreated, toResponse(diary))
	}
}

// ListDiariesHandler lists the organization's diaries for one date, most
// recent first.
func ListDiariesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		org, ok := loadOrganization(c, db)
		if !ok {
			return
		}

		date := c.Query("date")
		if _, err := time.Parse("2006-01-02", date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}

		var diaries []models.Diary
		err := db.WithContext(c.Request.Context()).
			Preload("Author").
			Preload("Things").
			Where("organization_id = ? AND date = ?", org.ID, date).
			Order("created_at DESC").
			Find(&diaries).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list diaries"})
			return
		}

		out := make([]diaryResponse, 0, len(diaries))
		for _, d := range diaries {
			out = append(out, toResponse(d))
		}
		c.JSON(http.StatusOK, gin.H{"diaries": out})
	}
}

func loadOrganization(c *gin.Context, db *gorm.DB) (models.Organization, bool) {
	var org models.Organization
	if err := db.WithContext(c.Request.Context()).First(&org, c.Param("orgID")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "organization not found"})
		return models.Organization{}, false
	}
	return org, true
}
