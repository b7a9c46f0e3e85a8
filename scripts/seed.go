// Seed script for creating demo data in Mnemos.
// Run with: go run ./scripts/seed.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mnemoslab/mnemos/internal/config"
	"github.com/mnemoslab/mnemos/internal/service"
	"github.com/mnemoslab/mnemos/internal/store"
)

func main() {
	envFile := os.Getenv("MNEMOS_ENV")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	db, err := store.Open(config.DatabasePath())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Opened database at %s\n", db.Path)

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	factStore := store.NewFactStore(db)
	lessonStore := store.NewLessonStore(db)
	valueStore := store.NewValueStore(db)
	eventStore := store.NewEventStore(db)
	entityStore := store.NewEntityStore(db)
	seedStore := store.NewSeedStore(db)
	queueStore := store.NewQueueStore(db)
	outboxStore := store.NewOutboxStore(db)

	beliefs := service.NewBeliefService(factStore, lessonStore, valueStore, entityStore, queueStore, outboxStore, logger)
	events := service.NewEventService(eventStore, seedStore, queueStore, outboxStore, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	entity, err := beliefs.CreateEntity(ctx, "Alice", "person", "primary collaborator")
	if err != nil {
		log.Fatalf("Failed to create entity: %v", err)
	}
	fmt.Printf("Created entity %d (%s)\n", entity.ID, entity.Name)

	conf := 0.9
	fact, err := beliefs.CreateFact(ctx, service.CreateFactInput{
		Subject:    "Alice",
		Predicate:  "prefers",
		Object:     "morning meetings",
		Source:     "conversation",
		Confidence: &conf,
	})
	if err != nil {
		log.Fatalf("Failed to create fact: %v", err)
	}
	fmt.Printf("Created fact %d: %s\n", fact.ID, fact.Sentence())

	lesson, err := beliefs.CreateLesson(ctx, service.CreateLessonInput{
		Domain: "collaboration",
		Lesson: "Confirm scope in writing before starting multi-day work",
		Source: "retrospective",
	})
	if err != nil {
		log.Fatalf("Failed to create lesson: %v", err)
	}
	fmt.Printf("Created lesson %d in %q\n", lesson.ID, lesson.Domain)

	value, err := beliefs.CreateValue(ctx, service.CreateValueInput{
		Name:        "honesty",
		Description: "Report uncertainty instead of guessing",
		Priority:    90,
	})
	if err != nil {
		log.Fatalf("Failed to create value: %v", err)
	}
	fmt.Printf("Created value %d (%s)\n", value.ID, value.Name)

	importance := 0.8
	valence := 0.6
	arousal := 0.7
	event, err := events.CreateEvent(ctx, service.CreateEventInput{
		EventType:    "milestone",
		Category:     "project",
		Summary:      "Shipped the first public release",
		Significance: 8,
		Importance:   &importance,
		Valence:      &valence,
		Arousal:      &arousal,
	})
	if err != nil {
		log.Fatalf("Failed to create event: %v", err)
	}
	fmt.Printf("Created event %d (strength %.2f)\n", event.ID, event.MemoryStrength)

	fmt.Println()
	fmt.Println("Seed complete. Try:")
	fmt.Println("  mnemos serve")
	fmt.Println("  curl http://localhost:8080/v1/facts")
	fmt.Println("  curl http://localhost:8080/v1/views/tiers")
}
