package bot

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

var c *cron.Cron

// StartScheduler starts the periodic run trigger.
func StartScheduler(r *Runner) {
	log.Println("Initializing scheduler...")
	c = cron.New()
	spec := viper.GetString("bot.runInterval")
	_, err := c.AddFunc(spec, func() {
		r.Run(context.Background())
	})
	if err != nil {
		log.Fatalf("Could not set up cron job: %v", err)
	}
	c.Start()
	log.Printf("Run scheduled (%s).", spec)

	// Perform an initial run on startup based on config.
	if viper.GetBool("bot.runAtStartup") {
		go func() {
			log.Println("Performing initial run on startup...")
			r.Run(context.Background())
		}()
	} else {
		log.Println("Skipping initial run on startup as per configuration.")
	}
}

// StopScheduler stops the cron jobs.
func StopScheduler() {
	if c != nil {
		c.Stop()
		log.Println("Scheduler stopped.")
	}
}
