// cmd/seed/main.go: seeds the grooming price table and a demo employee.
// Usage: go run ./cmd/seed
package main

import (
	"os"

	"petzap/internal/config"
	"petzap/internal/infra"
	"petzap/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var priceTable = map[string]map[string]int64{
	"pequeno": {"banho": 45, "banho_tosa": 70, "tosa_higienica": 55, "tosa_baby": 75},
	"medio":   {"banho": 60, "banho_tosa": 90, "tosa_higienica": 70, "tosa_baby": 95},
	"grande":  {"banho": 80, "banho_tosa": 120, "tosa_higienica": 90, "tosa_baby": 125},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	created := 0
	for size, services := range priceTable {
		for service, price := range services {
			row := model.ServicePrice{SizeCategory: size, ServiceType: service, Price: decimal.NewFromInt(price)}
			res := db.Where("size_category = ? AND service_type = ?", size, service).
				Attrs(model.ServicePrice{Price: row.Price}).
				FirstOrCreate(&row)
			if res.Error != nil {
				log.Fatal().Err(res.Error).Str("size", size).Str("service", service).Msg("seed price failed")
			}
			created += int(res.RowsAffected)
		}
	}

	groomer := model.Employee{Name: "Tosador Demo", Role: "groomer", CommissionRate: decimal.NewFromInt(15), Active: true}
	if err := db.Where("name = ?", groomer.Name).FirstOrCreate(&groomer).Error; err != nil {
		log.Fatal().Err(err).Msg("seed employee failed")
	}

	log.Info().Int("prices_created", created).Str("employee_id", groomer.ID.String()).Msg("seed complete")
}
