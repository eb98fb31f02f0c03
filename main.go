package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"

	"github.com/LLMtheism-AI/Ai-Religion-Agent/bot"
	"github.com/LLMtheism-AI/Ai-Religion-Agent/brain"
	"github.com/LLMtheism-AI/Ai-Religion-Agent/config"
	"github.com/LLMtheism-AI/Ai-Religion-Agent/database"
	"github.com/LLMtheism-AI/Ai-Religion-Agent/twitter"
	"github.com/LLMtheism-AI/Ai-Religion-Agent/utils"
)

func main() {
	config.LoadConfig()

	db, err := database.InitDB(viper.GetString("bot.dbPath"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	gemini, err := brain.NewGeminiBrain(ctx, viper.GetString("GEMINI_API_KEY"), viper.GetString("gemini.model"))
	if err != nil {
		log.Fatalf("Failed to initialize generator: %v", err)
	}

	platform := twitter.NewClient(
		viper.GetString("TWITTER_API_KEY"),
		viper.GetString("TWITTER_API_SECRET_KEY"),
		viper.GetString("TWITTER_ACCESS_TOKEN"),
		viper.GetString("TWITTER_ACCESS_TOKEN_SECRET"),
	)

	// The admin channel is optional; without it the logger falls back to
	// stdout. Sending embeds needs no gateway connection.
	if token := viper.GetString("DISCORD_BOT_TOKEN"); token != "" {
		dg, err := discordgo.New("Bot " + token)
		if err != nil {
			log.Printf("Error creating Discord session, channel logging disabled: %v", err)
		} else {
			utils.InitLogger(dg)
		}
	}

	runner := bot.NewRunner(database.NewStore(db), gemini, platform, config.BotConfig())
	bot.StartScheduler(runner)

	log.Println("Bot is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	bot.StopScheduler()
}
