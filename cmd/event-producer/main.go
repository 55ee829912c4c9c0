package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// MessageEvent mirrors the wire format the tracker consumes.
type MessageEvent struct {
	EventID    string    `json:"event_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	GuildID    string    `json:"guild_id"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sent_at"`
}

var playerPrefixes = []string{
	"Phoenix", "Shadow", "Thunder", "Storm", "Blaze", "Ninja", "Dragon", "Wolf", "Hawk", "Viper",
	"Ghost", "Titan", "Frost", "Cyber", "Nova", "Raven", "Omega", "Alpha", "Delta", "Sigma",
}

var chatter = []string{
	"morning everyone",
	"anyone else stuck on today's puzzle?",
	"brb coffee",
	"that word was brutal",
	"gg all",
}

func getPlayerName(idx int) string {
	prefixIdx := idx % len(playerPrefixes)
	suffix := idx/len(playerPrefixes) + 1
	return fmt.Sprintf("%s%d", playerPrefixes[prefixIdx], suffix)
}

// shareText builds a plausible share message: the header line plus a grid
// whose final row is all-green for wins.
func shareText(puzzle, attempts int) string {
	var b strings.Builder
	rows := attempts
	if attempts < 0 {
		b.WriteString(fmt.Sprintf("Wordle %d X/6\n", puzzle))
		rows = 6
	} else {
		b.WriteString(fmt.Sprintf("Wordle %d %d/6\n", puzzle, attempts))
	}

	cells := []rune{'⬜', '🟨', '🟩'}
	for row := 0; row < rows; row++ {
		if attempts > 0 && row == rows-1 {
			b.WriteString("🟩🟩🟩🟩🟩")
		} else {
			for col := 0; col < 5; col++ {
				b.WriteRune(cells[rand.Intn(len(cells))])
			}
		}
		if row < rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func randomAttempts() int {
	// Roughly bell-shaped around 4, with occasional failures.
	switch roll := rand.Intn(100); {
	case roll < 5:
		return -1
	case roll < 10:
		return 1 + rand.Intn(2)
	case roll < 45:
		return 3 + rand.Intn(2)
	default:
		return 4 + rand.Intn(3)
	}
}

func main() {
	// Command line flags
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "chat-messages", "Kafka topic")
	guildID := flag.String("guild", "guild-1", "Guild ID to post into")
	totalPlayers := flag.Int("players", 50, "Number of distinct players")
	eventsPerSecond := flag.Int("rate", 10, "Events per second")
	startPuzzle := flag.Int("puzzle", 1100, "First puzzle number")
	chatterPct := flag.Int("chatter", 30, "Percentage of events that are plain chatter")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	brokerList := strings.Split(*brokers, ",")

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("  🧩 Wordle Tracker Event Producer")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Brokers:       %s\n", *brokers)
	fmt.Printf("  Topic:         %s\n", *topic)
	fmt.Printf("  Guild:         %s\n", *guildID)
	fmt.Printf("  Players:       %d\n", *totalPlayers)
	fmt.Printf("  Events/sec:    %d\n", *eventsPerSecond)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	// Create producer
	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}
	defer producer.Close()

	// Handle producer errors and successes
	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	// Send message helper
	sendEvent := func(event MessageEvent) {
		data, err := json.Marshal(event)
		if err != nil {
			log.Printf("Failed to marshal event: %v", err)
			return
		}

		msg := &sarama.ProducerMessage{
			Topic: *topic,
			Key:   sarama.StringEncoder(event.GuildID),
			Value: sarama.ByteEncoder(data),
		}

		select {
		case producer.Input() <- msg:
		case <-done:
			return
		}
	}

	shutdown := func(reason string) {
		fmt.Printf("\n\n%s\n", reason)
		close(done)
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("\n✓ Completed. Sent: %d, Errors: %d\n",
			atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	interval := time.Second / time.Duration(*eventsPerSecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	// Track which puzzle each player is on so the stream produces
	// realistic consecutive streaks with occasional duplicates.
	puzzleFor := make([]int, *totalPlayers)
	for i := range puzzleFor {
		puzzleFor[i] = *startPuzzle
	}

	var sentCount int64

	for {
		select {
		case <-sigChan:
			shutdown("Shutting down...")
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				shutdown("Duration reached, shutting down...")
				return
			}

			playerIdx := rand.Intn(*totalPlayers)
			event := MessageEvent{
				EventID:    uuid.New().String(),
				AuthorID:   fmt.Sprintf("player-%d", playerIdx),
				AuthorName: getPlayerName(playerIdx),
				GuildID:    *guildID,
				SentAt:     time.Now(),
			}

			if rand.Intn(100) < *chatterPct {
				event.Text = chatter[rand.Intn(len(chatter))]
			} else {
				// 10% resend an already-submitted puzzle to exercise dedup
				puzzle := puzzleFor[playerIdx]
				if puzzle > *startPuzzle && rand.Intn(100) < 10 {
					puzzle--
				} else {
					puzzleFor[playerIdx]++
				}
				event.Text = shareText(puzzle, randomAttempts())
			}

			sendEvent(event)
			atomic.AddInt64(&sentCount, 1)

		case <-statsTicker.C:
			sent := atomic.LoadInt64(&sentCount)
			success := atomic.LoadInt64(&successCount)
			errors := atomic.LoadInt64(&errorCount)
			fmt.Printf("[%s] Events: %d | Sent: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				sent,
				success,
				errors,
			)
		}
	}
}
