package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/tapvote/config"
	"github.com/oksasatya/tapvote/internal/application"
	"github.com/oksasatya/tapvote/internal/container"
	"github.com/oksasatya/tapvote/internal/domain/entity"
	"github.com/oksasatya/tapvote/pkg/helpers"
)

type demoUser struct {
	Username string
	Phone    string
}

var demoUsers = []demoUser{
	{Username: "demoUser", Phone: "5550000001"},
	{Username: "demoVoter", Phone: "5550000002"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	c, err := container.Build(ctx, cfg, logger, container.Options{RunMigrations: true, WithRedis: true})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer c.Close()

	ids := make([]string, 0, len(demoUsers))
	for _, du := range demoUsers {
		u, err := c.Economy.Signup(ctx, du.Username, du.Phone, "")
		if errors.Is(err, entity.ErrConflict) {
			u, err = c.Economy.Login(ctx, du.Phone)
		}
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", du.Username, err)
		}
		ids = append(ids, u.ID)
		fmt.Printf("seeded user: id=%s username=%s phone=%s points=%d\n", u.ID, u.Username, u.Phone, u.Points)
	}

	res, err := c.Polls.CreatePoll(ctx, application.CreatePollInput{
		UserID:         ids[0],
		Title:          "Best chain for payments?",
		Options:        []string{"Bitcoin", "Ethereum", "Solana"},
		MetaTags:       []string{"crypto"},
		IdempotencyKey: "seed-demo-poll",
	})
	if err != nil {
		log.Fatalf("failed to seed poll: %v", err)
	}
	fmt.Printf("seeded poll: id=%s title=%q creator points=%d\n", res.Poll.ID, res.Poll.Title, res.RemainingPoints)

	vote, err := c.Polls.Vote(ctx, ids[1], res.Poll.ID, "Ethereum")
	switch {
	case errors.Is(err, entity.ErrAlreadyVoted):
		fmt.Println("demo vote already recorded")
	case err != nil:
		log.Fatalf("failed to seed vote: %v", err)
	default:
		fmt.Printf("seeded vote: user=%s option=Ethereum total=%d\n", ids[1], vote.Poll.TotalVotes())
	}
}
