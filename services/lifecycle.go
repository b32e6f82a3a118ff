package services

import (
	"time"

	"yotereparo-backend/models"
)

// Lifecycle owns the status flag of a service record.
type Lifecycle struct{}

// Initialize stamps the state of a record about to be created. Images are
// never accepted at creation time.
func (Lifecycle) Initialize(rec *models.ServiceRecord, now time.Time) {
	rec.ID = 0
	rec.Status = models.StatusActive
	rec.CreatedAt = now
	rec.Image = nil
}

// Enable activates rec and reports whether it was inactive.
func (Lifecycle) Enable(rec *models.ServiceRecord) bool {
	return transition(rec, models.StatusActive)
}

// Disable deactivates rec and reports whether it was active.
func (Lifecycle) Disable(rec *models.ServiceRecord) bool {
	return transition(rec, models.StatusInactive)
}

func transition(rec *models.ServiceRecord, to models.ServiceStatus) bool {
	if rec.Status == to {
		return false
	}
	rec.Status = to
	return true
}
