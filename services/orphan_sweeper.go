package services

import (
	"dms/models"
	"dms/storage"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// logSweeper logs sweeper events with timestamp
func logSweeper(message string) {
	log.Printf("[ORPHAN-SWEEPER %s] %s", time.Now().Format(time.RFC3339), message)
}

// SweepOrphans retries deletion of every recorded orphaned cloud object.
// Successful deletes remove the row; failures bump the attempt counter.
func SweepOrphans(db *gorm.DB, cloud storage.CloudStorage) {
	var orphans []models.CloudOrphan
	if err := db.Find(&orphans).Error; err != nil {
		logSweeper("Error fetching cloud orphans: " + err.Error())
		return
	}

	for _, orphan := range orphans {
		if err := cloud.Delete(orphan.CloudName); err != nil {
			orphan.Attempts++
			orphan.LastError = err.Error()
			db.Save(&orphan)
			logSweeper("Delete of " + orphan.CloudName + " failed: " + err.Error())
			continue
		}
		db.Unscoped().Delete(&orphan)
		logSweeper("Deleted orphaned cloud object " + orphan.CloudName)
	}
}

// StartOrphanSweeper schedules SweepOrphans on the given cron spec and
// returns the running scheduler.
func StartOrphanSweeper(db *gorm.DB, cloud storage.CloudStorage, spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { SweepOrphans(db, cloud) }); err != nil {
		return nil, err
	}
	c.Start()
	logSweeper("Scheduled with spec " + spec)
	return c, nil
}
