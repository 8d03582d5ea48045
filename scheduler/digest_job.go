package scheduler

import (
	"context"
	"log"
	"time"

	"medialog/insights"
	"medialog/notifier"
	"medialog/store"
)

// digestHighlights caps each digest section. Items carry no timestamps, so
// recency follows library insertion order.
const digestHighlights = 5

// DigestJob summarizes recent library activity and emails it out.
type DigestJob struct {
	store         *store.Store
	emailNotifier *notifier.EmailNotifier
	sendEmails    bool
}

// NewDigestJob creates a new weekly digest job
func NewDigestJob(st *store.Store) *DigestJob {
	// Get email configuration from environment variables
	emailConfig := notifier.GetEmailConfigFromEnv()
	var emailNotifier *notifier.EmailNotifier
	sendEmails := false

	// Only create email notifier if SMTP host and recipient are configured
	if emailConfig.SMTPHost != "" && emailConfig.RecipientEmail != "" {
		var err error
		emailNotifier, err = notifier.NewEmailNotifier(emailConfig)
		if err != nil {
			log.Printf("Failed to create email notifier: %v", err)
		} else {
			sendEmails = true
			log.Printf("Digest emails will be sent to: %s", emailConfig.RecipientEmail)
		}
	} else {
		log.Println("Digest emails disabled: missing configuration")
	}

	return &DigestJob{
		store:         st,
		emailNotifier: emailNotifier,
		sendEmails:    sendEmails,
	}
}

// Name returns the name of the job
func (j *DigestJob) Name() string {
	return "weekly_digest"
}

// Run executes the job
func (j *DigestJob) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	items := j.store.Items()
	stats := j.store.Stats()

	digest := notifier.Digest{
		Date:          time.Now().Format("January 2, 2006"),
		TotalItems:    stats["total"],
		WatchedItems:  stats["watched"],
		PlaylistCount: stats["playlists"],
		Insights:      insights.Quick(items),
	}

	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		if len(digest.RecentlyAdded) < digestHighlights {
			digest.RecentlyAdded = append(digest.RecentlyAdded, item)
		}
		if item.Watched && len(digest.RecentlyWatched) < digestHighlights {
			digest.RecentlyWatched = append(digest.RecentlyWatched, item)
		}
	}

	log.Printf("Digest summary: %d items total, %d watched, %d playlists",
		digest.TotalItems, digest.WatchedItems, digest.PlaylistCount)

	if !j.sendEmails || j.emailNotifier == nil {
		log.Println("Digest email skipped: notifications disabled")
		return nil
	}

	if err := j.emailNotifier.SendDigest(digest); err != nil {
		log.Printf("Failed to send digest email: %v", err)
		return err
	}
	return nil
}
