package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionGenerator generates business transaction CSV files in the
// format the categorize and insights commands consume.
type TransactionGenerator struct {
	Count     int
	StartDate time.Time
	EndDate   time.Time
	Currency  string
	Seed      int64
}

// TransactionTemplate represents a transaction record
type TransactionTemplate struct {
	Description string
	Amount      decimal.Decimal
	Currency    string
	Type        string // income or expense
	OccurredAt  time.Time
}

// vendorPool drives description generation per expense category.
var vendorPool = map[string][]string{
	"software": {
		"Adobe Creative Cloud monthly subscription",
		"Figma annual license",
		"GitHub Team plan",
		"Slack subscription",
		"Zoom Pro monthly",
	},
	"office": {
		"Office supplies from Staples",
		"Printer paper and stationery",
		"Desk organizers at OfficeMax",
	},
	"travel": {
		"Flight to client site",
		"Hotel for conference",
		"Uber to airport",
		"Airbnb for business trip",
	},
	"meals": {
		"Team lunch at Bistro Central",
		"Client dinner downtown",
		"Coffee meeting at Blue Bottle",
	},
	"utilities": {
		"Monthly internet bill",
		"Electricity utility payment",
		"Phone plan payment",
	},
	"equipment": {
		"Laptop from Dell",
		"External monitor purchase",
		"Printer hardware upgrade",
	},
}

var incomePool = []string{
	"Invoice payment from Acme Corp",
	"Client retainer payment",
	"Project fee from Northwind",
	"Product sales revenue",
	"Consulting invoice settled",
}

func main() {
	var (
		output    = flag.String("output", "generated_transactions.csv", "Output CSV file path")
		count     = flag.Int("count", 200, "Number of transactions to generate")
		startDate = flag.String("start-date", "2026-01-01", "Start date (YYYY-MM-DD)")
		endDate   = flag.String("end-date", "2026-03-31", "End date (YYYY-MM-DD)")
		currency  = flag.String("currency", "USD", "Currency code for all rows")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
		pattern   = flag.String("pattern", "mixed", "Generation pattern: mixed, recurring, anomaly")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}

	end, err := time.Parse("2006-01-02", *endDate)
	if err != nil {
		log.Fatalf("Invalid end date: %v", err)
	}

	generator := &TransactionGenerator{
		Count:     *count,
		StartDate: start,
		EndDate:   end,
		Currency:  *currency,
		Seed:      *seed,
	}

	var transactions []TransactionTemplate
	switch *pattern {
	case "recurring":
		transactions = generator.GenerateRecurring()
	case "anomaly":
		transactions = generator.GenerateWithAnomaly()
	default:
		transactions = generator.GenerateMixed()
	}

	if err := generator.WriteToCSV(*output, transactions); err != nil {
		log.Fatalf("Failed to write CSV: %v", err)
	}

	fmt.Printf("Generated %d transactions in %s\n", len(transactions), *output)
	fmt.Printf("Date range: %s to %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Printf("Seed used: %d\n", *seed)
}

// GenerateMixed creates a realistic mix of income and expenses spread
// evenly across the date range. Roughly 30% income, 70% expense.
func (tg *TransactionGenerator) GenerateMixed() []TransactionTemplate {
	rng := rand.New(rand.NewSource(tg.Seed))
	transactions := make([]TransactionTemplate, tg.Count)

	duration := tg.EndDate.Sub(tg.StartDate)
	categories := make([]string, 0, len(vendorPool))
	for category := range vendorPool {
		categories = append(categories, category)
	}

	for i := 0; i < tg.Count; i++ {
		txTime := tg.StartDate.Add(time.Duration(rng.Int63n(int64(duration))))

		if rng.Float64() < 0.3 {
			// Income: larger, rounder amounts
			amount := decimal.NewFromInt(int64(500 + rng.Intn(9500))).Round(2)
			transactions[i] = TransactionTemplate{
				Description: incomePool[rng.Intn(len(incomePool))],
				Amount:      amount,
				Currency:    tg.Currency,
				Type:        "income",
				OccurredAt:  txTime,
			}
			continue
		}

		category := categories[rng.Intn(len(categories))]
		descriptions := vendorPool[category]
		amount := decimal.NewFromFloat(5 + rng.Float64()*995).Round(2)
		transactions[i] = TransactionTemplate{
			Description: descriptions[rng.Intn(len(descriptions))],
			Amount:      amount,
			Currency:    tg.Currency,
			Type:        "expense",
			OccurredAt:  txTime,
		}
	}

	return transactions
}

// GenerateRecurring creates monthly subscription charges at fixed amounts,
// useful for exercising recurring-charge detection.
func (tg *TransactionGenerator) GenerateRecurring() []TransactionTemplate {
	rng := rand.New(rand.NewSource(tg.Seed))
	var transactions []TransactionTemplate

	subscriptions := vendorPool["software"]
	amounts := make([]decimal.Decimal, len(subscriptions))
	for i := range amounts {
		amounts[i] = decimal.NewFromFloat(10 + rng.Float64()*90).Round(2)
	}

	for month := tg.StartDate; month.Before(tg.EndDate); month = month.AddDate(0, 1, 0) {
		for i, description := range subscriptions {
			day := month.AddDate(0, 0, rng.Intn(5))
			if !day.Before(tg.EndDate) {
				continue
			}
			transactions = append(transactions, TransactionTemplate{
				Description: description,
				Amount:      amounts[i],
				Currency:    tg.Currency,
				Type:        "expense",
				OccurredAt:  day,
			})
		}
	}

	return transactions
}

// GenerateWithAnomaly creates a batch of near-uniform expenses plus one
// large outlier, useful for exercising anomaly detection.
func (tg *TransactionGenerator) GenerateWithAnomaly() []TransactionTemplate {
	rng := rand.New(rand.NewSource(tg.Seed))
	transactions := make([]TransactionTemplate, tg.Count)

	duration := tg.EndDate.Sub(tg.StartDate)
	base := decimal.NewFromFloat(50)

	for i := 0; i < tg.Count; i++ {
		txTime := tg.StartDate.Add(time.Duration(rng.Int63n(int64(duration))))
		jitter := decimal.NewFromFloat(rng.Float64() * 10).Round(2)
		transactions[i] = TransactionTemplate{
			Description: "Team lunch at Bistro Central",
			Amount:      base.Add(jitter),
			Currency:    tg.Currency,
			Type:        "expense",
			OccurredAt:  txTime,
		}
	}

	// One spike two orders of magnitude above the baseline.
	outlier := rng.Intn(tg.Count)
	transactions[outlier].Description = "Laptop from Dell"
	transactions[outlier].Amount = base.Mul(decimal.NewFromInt(100))

	return transactions
}

// WriteToCSV writes transactions to a CSV file
func (tg *TransactionGenerator) WriteToCSV(filename string, transactions []TransactionTemplate) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"description", "amount", "currency", "type", "date"}); err != nil {
		return err
	}

	for _, tx := range transactions {
		record := []string{
			tx.Description,
			tx.Amount.StringFixed(2),
			tx.Currency,
			tx.Type,
			tx.OccurredAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}
