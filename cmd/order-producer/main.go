package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Request mirrors the wire shape the matching engine consumes.
type Request struct {
	Action        string `json:"action"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Price         int64  `json:"price"`
	Quantity      uint64 `json:"quantity"`
	ClientOrderID string `json:"clientOrderID"`
	OrderID       uint64 `json:"orderID"`
}

// generateRandomID creates a random alphanumeric ID
func generateRandomID(rng *rand.Rand, length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	var result strings.Builder
	for i := 0; i < length; i++ {
		result.WriteByte(charset[rng.Intn(len(charset))])
	}
	return result.String()
}

// generateRequests creates a stream of order requests around a base price.
// Most are new orders; a smaller share cancels or amends an earlier order by
// guessing a recently assigned engine ID, which exercises the rejection
// paths as well.
func generateRequests(rng *rand.Rand, count int, symbols []string, basePrice int64, priceSpread int64) []Request {
	requests := make([]Request, count)
	var issued uint64

	for i := 0; i < count; i++ {
		symbol := symbols[rng.Intn(len(symbols))]

		roll := rng.Float64()
		switch {
		case roll < 0.75 || issued == 0:
			side := "ask"
			price := basePrice + rng.Int63n(priceSpread)
			if rng.Intn(2) == 0 {
				side = "bid"
				price = basePrice - rng.Int63n(priceSpread)
			}
			issued++
			requests[i] = Request{
				Action:        "new",
				Symbol:        symbol,
				Side:          side,
				Price:         price,
				Quantity:      uint64(1 + rng.Intn(100)),
				ClientOrderID: generateRandomID(rng, rng.Intn(4)+5),
			}
		case roll < 0.9:
			requests[i] = Request{
				Action:  "cancel",
				Symbol:  symbol,
				OrderID: uint64(1 + rng.Int63n(int64(issued))),
			}
		default:
			side := "bid"
			if rng.Intn(2) == 0 {
				side = "ask"
			}
			requests[i] = Request{
				Action:   "amend",
				Symbol:   symbol,
				OrderID:  uint64(1 + rng.Int63n(int64(issued))),
				Side:     side,
				Price:    basePrice + rng.Int63n(priceSpread) - priceSpread/2,
				Quantity: uint64(1 + rng.Intn(100)),
			}
		}
	}

	return requests
}

func main() {
	var (
		brokers     = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic       = flag.String("topic", "orders", "Kafka topic name")
		file        = flag.String("file", "", "JSON file with requests (optional, generates requests if not provided)")
		delay       = flag.Duration("delay", 100*time.Millisecond, "Delay between sending requests")
		count       = flag.Int("count", 1000, "Number of requests to generate")
		symbolList  = flag.String("symbols", "BTC-USD,ETH-USD", "Symbols to trade (comma-separated)")
		basePrice   = flag.Int64("base-price", 50000, "Base price in ticks")
		priceSpread = flag.Int64("price-spread", 200, "Price spread range in ticks")
		seed        = flag.Int64("seed", 0, "Random seed (0 uses current time)")
	)
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:        *topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	ctx := context.Background()

	var requests []Request
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read file %s: %v", *file, err)
		}
		if err := json.Unmarshal(data, &requests); err != nil {
			log.Fatalf("Failed to parse JSON from file: %v", err)
		}
		log.Printf("Loaded %d requests from file: %s", len(requests), *file)
	} else {
		symbols := strings.Split(*symbolList, ",")
		log.Printf("Generating %d requests for %v (seed %d)...", *count, symbols, *seed)
		requests = generateRequests(rng, *count, symbols, *basePrice, *priceSpread)
	}

	log.Printf("Sending requests to Kafka broker: %s, topic: %s", *brokers, *topic)
	log.Printf("Delay between requests: %v", *delay)

	for i, request := range requests {
		payload, err := json.Marshal(request)
		if err != nil {
			log.Printf("Failed to marshal request %d: %v", i+1, err)
			continue
		}

		msg := kafka.Message{
			Key:   []byte(request.Symbol),
			Value: payload,
			Time:  time.Now(),
		}

		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Printf("Failed to send request %d: %v", i+1, err)
			continue
		}

		if (i+1)%100 == 0 || i == len(requests)-1 {
			log.Printf("Sent request %d/%d: %s %s %s %d@%d",
				i+1, len(requests), request.Action, request.Symbol,
				request.Side, request.Quantity, request.Price)
		}

		if i < len(requests)-1 {
			time.Sleep(*delay)
		}
	}

	log.Printf("Successfully sent all %d requests!", len(requests))

	// Print summary
	counts := map[string]int{}
	for _, request := range requests {
		counts[request.Action]++
	}
	log.Printf("--- Summary ---")
	log.Printf("Total Requests: %d", len(requests))
	log.Printf("New: %d", counts["new"])
	log.Printf("Cancel: %d", counts["cancel"])
	log.Printf("Amend: %d", counts["amend"])
}
