package service

import (
	"fmt"
	"log"
)

// JobService owns the scheduled maintenance work: the daily sweep that
// reminds renters about overdue returns.
type JobService struct {
	Schedule *ScheduleService
}

func NewJobService(schedule *ScheduleService) *JobService {
	return &JobService{Schedule: schedule}
}

// SendOverdueReminders emails and texts every renter holding a unit past its
// return date. Send failures are logged per booking and do not stop the
// sweep; renters without contact details are skipped.
func (s *JobService) SendOverdueReminders() error {
	log.Println("Cron Job: checking for overdue returns...")

	overdue := s.Schedule.PendingReturns(ScheduleQuery{})
	if len(overdue) == 0 {
		log.Println("Cron Job: no overdue returns found.")
		return nil
	}
	log.Printf("Cron Job: found %d overdue return(s)", len(overdue))

	var failed int
	for _, entry := range overdue {
		subject := fmt.Sprintf("Camera return overdue: %s", entry.Unit)
		body := fmt.Sprintf(
			"Hi %s, the camera %s was due back on %s (%d day(s) ago). Please arrange the return.",
			entry.RenterName, entry.Unit, entry.End, entry.OverdueDays)

		if entry.RenterEmail != "" {
			if err := SendEmailWithSendGrid(entry.RenterEmail, entry.RenterName, subject, body, ""); err != nil {
				log.Printf("Cron Job: reminder email for booking %s failed: %v", entry.BookingID, err)
				failed++
			}
		}
		if entry.RenterPhone != "" {
			if err := SendSMS(entry.RenterPhone, body); err != nil {
				log.Printf("Cron Job: reminder SMS for booking %s failed: %v", entry.BookingID, err)
				failed++
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("cron job: %d reminder(s) failed to send", failed)
	}
	log.Printf("Cron Job: reminders processed for %d booking(s)", len(overdue))
	return nil
}
