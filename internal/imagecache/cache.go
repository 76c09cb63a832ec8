package imagecache

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Errors returned by the cache.
var (
	ErrNotFound      = errors.New("image record not found")
	ErrQuotaExceeded = errors.New("local image storage quota exceeded")
)

// ImageRecord is the durable local copy of a dish image. Records are
// written when staff attach an image, updated when the upload queue
// confirms the cloud copy, and removed only by an explicit cache clear.
type ImageRecord struct {
	DishID          string `gorm:"primaryKey"`
	Filename        string
	Payload         []byte
	UploadedToCloud bool
	CloudURL        string
	LocalLoadTime   time.Time
	UploadTime      *time.Time
}

// Cache stores image records in a local sqlite file so dish photos render
// immediately from disk while the cloud upload happens in the background.
type Cache struct {
	db         *gorm.DB
	maxPayload int
}

// Open opens (or creates) the sqlite file at path and migrates the record
// table. maxPayload caps a single inline payload; anything over it is a
// quota error surfaced to the user.
func Open(path string, maxPayload int) (*Cache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open image cache: %w", err)
	}
	if err := db.AutoMigrate(&ImageRecord{}); err != nil {
		return nil, fmt.Errorf("migrate image cache: %w", err)
	}
	return &Cache{db: db, maxPayload: maxPayload}, nil
}

// Put stores (or replaces) the local image for a dish with the cloud
// status reset, since a new payload has by definition not been uploaded.
func (c *Cache) Put(dishID, filename string, payload []byte) (ImageRecord, error) {
	if c.maxPayload > 0 && len(payload) > c.maxPayload {
		return ImageRecord{}, fmt.Errorf("%w: %d bytes", ErrQuotaExceeded, len(payload))
	}

	rec := ImageRecord{
		DishID:          dishID,
		Filename:        filename,
		Payload:         payload,
		UploadedToCloud: false,
		CloudURL:        "",
		LocalLoadTime:   time.Now(),
		UploadTime:      nil,
	}
	if err := c.db.Save(&rec).Error; err != nil {
		if isDiskFull(err) {
			return ImageRecord{}, fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return ImageRecord{}, fmt.Errorf("store image record: %w", err)
	}
	return rec, nil
}

// Get returns the record for a dish.
func (c *Cache) Get(dishID string) (ImageRecord, error) {
	var rec ImageRecord
	err := c.db.First(&rec, "dish_id = ?", dishID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ImageRecord{}, ErrNotFound
	}
	if err != nil {
		return ImageRecord{}, fmt.Errorf("load image record: %w", err)
	}
	return rec, nil
}

// List returns all records, newest first.
func (c *Cache) List() ([]ImageRecord, error) {
	var recs []ImageRecord
	if err := c.db.Order("local_load_time desc").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list image records: %w", err)
	}
	return recs, nil
}

// MarkUploaded records that the dish's image now has a durable cloud URL.
func (c *Cache) MarkUploaded(dishID, cloudURL string) error {
	now := time.Now()
	res := c.db.Model(&ImageRecord{}).Where("dish_id = ?", dishID).Updates(map[string]any{
		"uploaded_to_cloud": true,
		"cloud_url":         cloudURL,
		"upload_time":       &now,
	})
	if res.Error != nil {
		return fmt.Errorf("mark uploaded: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear wipes every record. Only reachable through the explicit
// cache-clear action; nothing expires on its own.
func (c *Cache) Clear() error {
	if err := c.db.Where("1 = 1").Delete(&ImageRecord{}).Error; err != nil {
		return fmt.Errorf("clear image cache: %w", err)
	}
	return nil
}

// isDiskFull detects sqlite's storage exhaustion so it can surface as the
// distinct quota error rather than a generic failure.
func isDiskFull(err error) bool {
	return err != nil && strings.Contains(err.Error(), "database or disk is full")
}
